package config

import (
	"fmt"
	"regexp"
)

// placeholderRe matches ${NAME} placeholders: uppercase letters, digits and
// underscore, starting with a letter or underscore.
var placeholderRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// Substitute replaces every ${NAME} placeholder in s from vars. An
// unresolved placeholder is a hard error naming the variable and the
// context it appeared in.
func Substitute(s string, vars map[string]string, context string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return m
	})
	if missing != "" {
		return "", fmt.Errorf("unresolved variable ${%s} in %s", missing, context)
	}
	return out, nil
}

// SubstituteAll applies Substitute to each string.
func SubstituteAll(in []string, vars map[string]string, context string) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		sub, err := Substitute(s, vars, context)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}
