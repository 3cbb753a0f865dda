// Package prompt renders the text templates models are instructed with.
package prompt

import (
	"strings"
	"text/template"
)

// Render executes templateStr with data. Referencing a key data does not have is an error.
func Render(name, templateStr string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
