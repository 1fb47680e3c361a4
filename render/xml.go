package render

import (
	"encoding/xml"
	"io"

	"race-report/report"
)

type XML struct{}

func (XML) Format() string      { return "xml" }
func (XML) ContentType() string { return "text/xml" }

// Drivers is the XML document root.
type Drivers struct {
	XMLName xml.Name `xml:"drivers"`
	Drivers []Driver `xml:"driver"`
}

type Driver struct {
	Time string     `xml:"time"`
	Data DriverData `xml:"data"`
}

type DriverData struct {
	Code string `xml:"code"`
	Name string `xml:"name"`
	Team string `xml:"team"`
}

func (XML) Render(w io.Writer, rep *report.Report) error {
	doc := Drivers{Drivers: []Driver{}}
	if rep != nil {
		for _, e := range rep.Entries() {
			doc.Drivers = append(doc.Drivers, Driver{
				Time: e.Time,
				Data: DriverData{Code: string(e.Code), Name: e.Name, Team: e.Team},
			})
		}
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(doc)
}
