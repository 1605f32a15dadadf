package util

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// unresolvedMarker matches leftover {{...}} markers after rendering, which
// indicates a template referenced a field the caller never supplied.
var unresolvedMarker = regexp.MustCompile(`\{\{[^}]*\}\}`)

// RenderTemplate replaces template variables using Go's text/template package
// over a fixed field set. All placeholders must resolve; a leftover marker is
// an error rather than a silently half-filled prompt. This lives in internal
// to avoid committing to public API stability prematurely.
func RenderTemplate(text string, fields map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", err
	}

	out := buf.String()
	if m := unresolvedMarker.FindString(out); m != "" {
		return "", fmt.Errorf("unresolved template placeholder %q", m)
	}
	return out, nil
}
