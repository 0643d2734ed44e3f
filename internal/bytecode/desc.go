package bytecode

import (
	"strings"

	"dslgen/internal/diag"
)

// ArgCount returns the number of parameters of a method descriptor such as
// "(ILjava/lang/String;[J)V".
func ArgCount(desc string) (int, error) {
	params, _, err := splitDesc(desc)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < len(params); {
		next, err := skipType(params, i)
		if err != nil {
			return 0, diag.Errorf(diag.PatBadDesc, "descriptor %q: %v", desc, err)
		}
		i = next
		n++
	}
	return n, nil
}

// AppendParams inserts extra parameter descriptors before the closing paren.
func AppendParams(desc string, extra string) (string, error) {
	params, ret, err := splitDesc(desc)
	if err != nil {
		return "", err
	}
	return "(" + params + extra + ")" + ret, nil
}

func splitDesc(desc string) (params, ret string, err error) {
	if !strings.HasPrefix(desc, "(") {
		return "", "", diag.Errorf(diag.PatBadDesc, "descriptor %q does not start with '('", desc)
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 || end == len(desc)-1 {
		return "", "", diag.Errorf(diag.PatBadDesc, "descriptor %q has no return type", desc)
	}
	return desc[1:end], desc[end+1:], nil
}

type descError string

func (e descError) Error() string { return string(e) }

func skipType(s string, i int) (int, error) {
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return 0, descError("array without element type")
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end <= 1 {
			return 0, descError("unterminated class type")
		}
		return i + end + 1, nil
	}
	return 0, descError("unexpected '" + s[i:i+1] + "'")
}
