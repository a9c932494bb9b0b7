// Package template finds and fills {{variable}} placeholders in prompt content.
//
// A placeholder is {{name}} or {{name:default}}. Whitespace inside the braces
// is ignored. Text that does not parse as a placeholder is left as is.
package template

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*(?::([^{}]*))?\}\}`)

// Variable is a placeholder declared in content.
type Variable struct {
	Name       string `json:"name"`
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
}

// Variables lists distinct placeholders in first-appearance order.
// The first declaration with a default supplies it.
func Variables(content string) []Variable {
	var out []Variable
	index := map[string]int{}
	for _, m := range placeholder.FindAllStringSubmatchIndex(content, -1) {
		v := toVariable(content, m)
		if i, ok := index[v.Name]; ok {
			if !out[i].HasDefault && v.HasDefault {
				out[i] = v
			}
			continue
		}
		index[v.Name] = len(out)
		out = append(out, v)
	}
	return out
}

func toVariable(content string, m []int) Variable {
	v := Variable{Name: content[m[2]:m[3]]}
	if m[4] >= 0 {
		v.Default = strings.TrimSpace(content[m[4]:m[5]])
		v.HasDefault = true
	}
	return v
}

// Render substitutes values, then defaults. Placeholders with neither stay
// intact and their names are returned as missing, distinct and in order.
func Render(content string, values map[string]string) (string, []string) {
	var (
		b       strings.Builder
		missing []string
		seen    = map[string]bool{}
		last    int
	)
	for _, m := range placeholder.FindAllStringSubmatchIndex(content, -1) {
		b.WriteString(content[last:m[0]])
		last = m[1]

		v := toVariable(content, m)
		if val, ok := values[v.Name]; ok {
			b.WriteString(val)
			continue
		}
		if v.HasDefault {
			b.WriteString(v.Default)
			continue
		}
		b.WriteString(content[m[0]:m[1]])
		if !seen[v.Name] {
			seen[v.Name] = true
			missing = append(missing, v.Name)
		}
	}
	b.WriteString(content[last:])
	return b.String(), missing
}
