package serr

import (
	"fmt"
	"strings"
)

// sourceLine extracts the 1-indexed line from source, or "" if out of range.
func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// lineOf reports the source line an error happened on, and whether it has
// one at all (the two budget errors do not).
func lineOf(err error) (int, bool) {
	switch e := err.(type) {
	case UnexpectedCharacter:
		return e.Line, true
	case ParseError:
		return e.Line, true
	case OutOfTokens:
		return e.Line, true
	case ObjectResolutionError:
		return e.Line, true
	case RuntimeError:
		return e.Line, true
	default:
		return 0, false
	}
}

// Format renders err the way CWBudde-go-dws's internal/errors.CompilerError
// does: a line header, the offending source line, a caret, then the
// message. Errors with no associated line (the budget errors) fall back to
// their plain Error() text.
func Format(err error, source, file string) string {
	line, ok := lineOf(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	if file != "" {
		fmt.Fprintf(&sb, "Error in %s:%d\n", file, line)
	} else {
		fmt.Fprintf(&sb, "Error at line %d\n", line)
	}

	if src := sourceLine(source, line); src != "" {
		prefix := fmt.Sprintf("%4d | ", line)
		sb.WriteString(prefix)
		sb.WriteString(src)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)))
		sb.WriteString("^\n")
	}

	sb.WriteString(err.Error())
	return sb.String()
}
