package web

import (
	"bytes"
	"net/http"

	"race-report/report"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type pageEntry struct {
	report.Entry
	Position int
}

type pageData struct {
	Title     string
	Order     report.Order
	Delimiter int
	Entries   []pageEntry
}

// positions numbers entries by finishing place: 1 is the shortest time
// whatever the display order.
func positions(rep *report.Report, order report.Order) []pageEntry {
	entries := rep.Entries()
	out := make([]pageEntry, len(entries))
	for i, e := range entries {
		pos := i + 1
		if order == report.Desc {
			pos = len(entries) - i
		}
		out[i] = pageEntry{Entry: e, Position: pos}
	}
	return out
}

func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	rep, order, ok := s.build(w, r)
	if !ok {
		return
	}
	delim := TopDelimiter
	if order == report.Desc {
		delim = rep.Len() - TopDelimiter
	}
	if delim >= rep.Len() {
		delim = 0
	}
	s.renderPage(w, "index.html", pageData{
		Title:     "Race report",
		Order:     order,
		Delimiter: delim,
		Entries:   positions(rep, order),
	})
}

func (s *Server) DriversPage(w http.ResponseWriter, r *http.Request) {
	rep, order, ok := s.build(w, r)
	if !ok {
		return
	}
	s.renderPage(w, "drivers.html", pageData{
		Title:   "Drivers",
		Order:   order,
		Entries: positions(rep, order),
	})
}

func (s *Server) DriverPage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	rep, order, ok := s.build(w, r)
	if !ok {
		return
	}
	found := report.Lookup(rep, name)
	var matches []pageEntry
	for _, e := range positions(rep, order) {
		if _, ok := found.Get(e.Time); ok {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		http.Error(w, "driver not found", http.StatusNotFound)
		return
	}
	s.renderPage(w, "driver.html", pageData{
		Title:   matches[0].Name,
		Order:   order,
		Entries: matches,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("web: template execute failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
