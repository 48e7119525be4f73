package catalog

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"
)

const maxRenderedBytes = 16 * 1024

// templates caches parsed catalog templates by source text.
var templates sync.Map

// limitWriter caps output from template.Execute.
type limitWriter struct {
	w       io.Writer
	n       int64
	written int64
}

func (lw *limitWriter) Write(p []byte) (int, error) {
	if lw.written+int64(len(p)) > lw.n {
		allowed := lw.n - lw.written
		if allowed > 0 {
			n, err := lw.w.Write(p[:allowed])
			lw.written += int64(n)
			if err != nil {
				return n, err
			}
		}
		return 0, fmt.Errorf("rendered message exceeds %d bytes", lw.n)
	}
	n, err := lw.w.Write(p)
	lw.written += int64(n)
	return n, err
}

func parse(text string) (*template.Template, error) {
	if cached, ok := templates.Load(text); ok {
		return cached.(*template.Template), nil
	}
	tmpl, err := template.New("").Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, err
	}
	templates.Store(text, tmpl)
	return tmpl, nil
}

// Render executes a catalog text against data. Texts without actions are
// returned unchanged.
func Render(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := parse(text)
	if err != nil {
		return "", fmt.Errorf("parse message template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&limitWriter{w: &buf, n: maxRenderedBytes}, data); err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}
	return buf.String(), nil
}
