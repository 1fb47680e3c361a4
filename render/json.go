package render

import (
	"encoding/json"
	"io"

	"race-report/report"
)

type JSON struct{}

func (JSON) Format() string      { return "json" }
func (JSON) ContentType() string { return "application/json" }

func (JSON) Render(w io.Writer, rep *report.Report) error {
	if rep == nil {
		rep = report.New()
	}
	return json.NewEncoder(w).Encode(rep)
}
