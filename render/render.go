package render

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"race-report/metrics"
	"race-report/report"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Renderer serializes a report into one wire format.
type Renderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, rep *report.Report) error
}

var renderers = map[string]Renderer{
	"json": JSON{},
	"xml":  XML{},
}

// Formats lists the supported format names, sorted.
func Formats() []string {
	return slices.Sorted(maps.Keys(renderers))
}

// For returns the renderer registered under name; an empty name selects JSON.
func For(name string) (Renderer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "json"
	}
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q: supported formats are %s", ErrUnsupportedFormat, name, strings.Join(Formats(), ", "))
	}
	return r, nil
}

// Write renders rep with r and counts the render.
func Write(w io.Writer, r Renderer, rep *report.Report) error {
	if err := r.Render(w, rep); err != nil {
		return fmt.Errorf("render %s: %w", r.Format(), err)
	}
	metrics.RendersTotal.WithLabelValues(r.Format()).Inc()
	return nil
}
