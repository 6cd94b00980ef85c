package doctor

import (
	"fmt"
	"io"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// report accumulates check results and renders them as PASS/FAIL
// lines. Only recorded results count toward the summary; informational
// statuses print the same way but are not scored.
type report struct {
	out    io.Writer
	color  bool
	passed int
	total  int
}

func (r *report) section(title string) {
	fmt.Fprintf(r.out, "\n## %s:\n", title)
}

func (r *report) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// status prints one result line. value, when given, is echoed after
// the message. It returns ok unchanged so callers can record it.
func (r *report) status(message string, ok bool, value ...string) bool {
	verdict := "PASS"
	if !ok {
		verdict = "FAIL"
	}
	if r.color {
		c := colorGreen
		if !ok {
			c = colorRed
		}
		verdict = c + verdict + colorReset
	}
	if len(value) > 0 && value[0] != "" {
		fmt.Fprintf(r.out, "* %s (=%s): %s\n", message, value[0], verdict)
	} else {
		fmt.Fprintf(r.out, "* %s: %s\n", message, verdict)
	}
	return ok
}

// record scores a counted check.
func (r *report) record(ok bool) {
	r.total++
	if ok {
		r.passed++
	}
}
