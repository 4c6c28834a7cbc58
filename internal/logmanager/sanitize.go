package logmanager

import (
	"fmt"
	"runtime"
	"strings"
)

// sanitizeFull formats err together with the calling goroutine's stack,
// for the on-disk bad-record log, which always keeps the full trace
// regardless of display sanitization settings.
func sanitizeFull(err error) string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return fmt.Sprintf("%v\n%s", err, strings.TrimRight(string(buf[:n]), "\n"))
}

// Sanitize formats err's message plus a frame list filtered against
// prefixes and truncated at depth, for user-facing display. Frames whose
// function name starts with any of prefixes are dropped; the remaining
// frames are capped at depth entries.
func Sanitize(err error, prefixes []string, depth int) string {
	if depth <= 0 {
		depth = 20
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	b.WriteString(err.Error())

	kept := 0
	for {
		frame, more := frames.Next()
		if kept >= depth {
			break
		}
		if !hasPrefix(frame.Function, prefixes) {
			fmt.Fprintf(&b, "\n  at %s (%s:%d)", frame.Function, frame.File, frame.Line)
			kept++
		}
		if !more {
			break
		}
	}
	return b.String()
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// escapeSingleLine collapses any line breaks in s so it can be written as
// a bad-record file header field without corrupting the entry boundary.
var singleLineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func escapeSingleLine(s string) string {
	return singleLineReplacer.Replace(s)
}
