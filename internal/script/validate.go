package script

import (
	"fmt"
	"strings"

	"github.com/traidnet/wificore/internal/common/errorx"
)

// Validate is the safety net between the generator and the device: it
// rejects anything that cannot be a well-formed line-oriented command
// script. It is a syntax check, not a semantic one; a script that passes
// can still be wrong, but it cannot smuggle in statement separators or
// block constructs.
func Validate(text string) error {
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, ";{}") {
			return errorx.New(errorx.KindScriptValidation,
				fmt.Sprintf("line %d contains a statement separator or brace", i+1))
		}
		if strings.Count(line, `"`)%2 != 0 {
			return errorx.New(errorx.KindScriptValidation,
				fmt.Sprintf("line %d has unbalanced quotes", i+1))
		}
		if err := checkAssignment(line, i+1); err != nil {
			return err
		}
	}
	return nil
}

// splitFields splits a statement on whitespace while keeping quoted
// values intact, so `comment="guest wifi"` stays one field.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// checkAssignment rejects add/set statements that trail off without a
// single key=value assignment.
func checkAssignment(line string, n int) error {
	fields := splitFields(line)
	for idx, f := range fields {
		if f != "add" && f != "set" {
			continue
		}
		rest := fields[idx+1:]
		// "set" addresses an item first, e.g. `set ether1 ...`
		if f == "set" && len(rest) > 0 && !strings.Contains(rest[0], "=") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return errorx.New(errorx.KindScriptValidation,
				fmt.Sprintf("line %d: %q without an assignment", n, f))
		}
		for _, arg := range rest {
			if !strings.Contains(arg, "=") {
				return errorx.New(errorx.KindScriptValidation,
					fmt.Sprintf("line %d: argument %q is not an assignment", n, arg))
			}
		}
		return nil
	}
	return nil
}
