package common

import (
	"fmt"
	"os"
)

// ANSI color escape sequences used when rendering diagnostics.
var (
	boldText  = ""
	redText   = ""
	greenText = ""
	grayText  = ""
	resetText = ""
)

func init() {
	// http://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return
	}
	enableColor()
}

func enableColor() {
	boldText = "\x1B[01m"
	redText = "\x1B[31m"
	greenText = "\x1B[32m"
	grayText = "\x1B[30m"
	resetText = "\x1B[0m"
}

// DisableColor turns off ANSI coloring for the remainder of the process.
// cmd/plc calls this for -no-color.
func DisableColor() {
	boldText = ""
	redText = ""
	greenText = ""
	grayText = ""
	resetText = ""
}

func BoldRed(s string) string {
	return fmt.Sprintf("%s%s%s%s", boldText, redText, s, resetText)
}

func BoldGreen(s string) string {
	return fmt.Sprintf("%s%s%s%s", boldText, greenText, s, resetText)
}

func Gray(s string) string {
	return fmt.Sprintf("%s%s%s", grayText, s, resetText)
}
