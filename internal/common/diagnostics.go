package common

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"

	"github.com/plc-lang/plc/internal/token"
)

// Render formats err for display on the command line, resolving its byte
// offset (when it has one) against file and attaching a caret-annotated
// source excerpt, the same presentation the teacher builds in
// internal/common/context.go. Rendering is purely cosmetic: the pipeline
// itself never looks at this output, only at the typed error values.
func Render(file *token.File, err error) string {
	switch e := err.(type) {
	case *ParseError:
		return render(file, "parse error", e.Index, true, e.Msg)
	case *AnalysisError:
		return render(file, "analysis error", e.Index, e.HasIndex, e.Msg)
	case *RuntimeError:
		return render(file, "runtime error", 0, false, e.Msg)
	default:
		return BoldRed("error") + ": " + err.Error()
	}
}

func render(file *token.File, kind string, index int, hasIndex bool, msg string) string {
	label := BoldRed(kind)
	if !hasIndex {
		return fmt.Sprintf("%s: %s", label, msg)
	}

	pos := file.Position(index)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s: %s", pos, label, msg)

	if excerpt, mark := sourceExcerpt(file, pos); excerpt != "" {
		buf.WriteString("\n")
		buf.WriteString(excerpt)
		buf.WriteString("\n")
		buf.WriteString(mark)
	}

	return buf.String()
}

var notWhitespace = regexp.MustCompile(`\S`)

// sourceExcerpt returns the offending line and a caret line pointing at
// pos.Column within it.
func sourceExcerpt(file *token.File, pos token.Position) (string, string) {
	if file == nil || pos.Line <= 0 {
		return "", ""
	}
	lines := splitLines(file.Src)
	idx := pos.Line - 1
	if idx < 0 || idx >= len(lines) {
		return "", ""
	}
	line := lines[idx]
	col := pos.Column - 1
	if col < 0 || col > len(line) {
		return line, ""
	}
	mark := notWhitespace.ReplaceAllString(line[:col], " ")
	mark += BoldGreen("^")
	return line, mark
}

func splitLines(src []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
