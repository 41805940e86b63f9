// Package tmpl renders user-supplied line templates for command output.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

// shellQuote wraps s in single quotes, escaping embedded single quotes, so a
// rendered line can be pasted back into a shell.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(n int, s string) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

var funcs = template.FuncMap{
	"shq":   shellQuote,
	"trunc": truncate,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// Template is a parsed line template.
type Template struct {
	t *template.Template
}

// Compile parses a Go template string. Missing keys are errors.
//
// Available template functions:
//   - shq: shell-quote a string
//   - trunc N: cut a string to N runes
//   - upper, lower: change case
func Compile(text string) (*Template, error) {
	t, err := template.New("line").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{t: t}, nil
}

// Execute renders the template for data.
func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
