// Package common holds the cross-cutting pieces shared by every pipeline
// stage: the three positioned error channels from spec.md §7 and the
// colorized diagnostic rendering used by cmd/plc.
package common

import "fmt"

// ParseError is raised by the lexer or the parser. It is fatal: the
// pipeline does not attempt recovery past the first one (spec.md §7,
// Non-goals).
type ParseError struct {
	Msg   string
	Index int
}

func NewParseError(index int, format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Index: index}
}

func (e *ParseError) Error() string {
	return e.Msg
}

// AnalysisError is raised by the analyzer during name resolution or type
// checking. The source index is optional: some violations (e.g. "no main
// function") have no single offending token.
type AnalysisError struct {
	Msg      string
	Index    int
	HasIndex bool
}

func NewAnalysisError(index int, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Msg: fmt.Sprintf(format, args...), Index: index, HasIndex: true}
}

func NewAnalysisErrorNoIndex(format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Msg: fmt.Sprintf(format, args...)}
}

func (e *AnalysisError) Error() string {
	return e.Msg
}

// RuntimeError is raised by the interpreter. It aborts the current program
// run; it never escapes across a method-invocation boundary as anything
// but this type (the non-local return signal used internally for `Return`
// is a distinct, non-error control value, see internal/interp).
type RuntimeError struct {
	Msg string
}

func NewRuntimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	return e.Msg
}
