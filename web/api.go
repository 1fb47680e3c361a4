package web

import (
	"bytes"
	"net/http"

	"race-report/render"
	"race-report/report"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// ReportAPI serves the full report as JSON or XML.
func (s *Server) ReportAPI(w http.ResponseWriter, r *http.Request) {
	renderer, err := render.For(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, _, ok := s.build(w, r)
	if !ok {
		return
	}
	writeReport(w, renderer, rep)
}

// DriversAPI serves the report with each code replaced by the URL of that
// driver's resource.
func (s *Server) DriversAPI(w http.ResponseWriter, r *http.Request) {
	renderer, err := render.For(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, _, ok := s.build(w, r)
	if !ok {
		return
	}
	linked := report.New()
	for _, e := range rep.Entries() {
		u, err := s.driverURL(r, string(e.Code))
		if err != nil {
			log.Error().Err(err).Str("code", string(e.Code)).Msg("web: driver url")
			http.Error(w, "report unavailable", http.StatusInternalServerError)
			return
		}
		e.Code = report.Code(u)
		linked.Put(e)
	}
	writeReport(w, renderer, linked)
}

// DriverAPI serves the entries matching the {name} path value exactly; no
// match yields an empty report.
func (s *Server) DriverAPI(w http.ResponseWriter, r *http.Request) {
	renderer, err := render.For(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, _, ok := s.build(w, r)
	if !ok {
		return
	}
	writeReport(w, renderer, report.Lookup(rep, mux.Vars(r)["name"]))
}

func (s *Server) driverURL(r *http.Request, code string) (string, error) {
	u, err := s.driverRoute.URL("name", code)
	if err != nil {
		return "", err
	}
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		u.Scheme = p
	}
	u.Host = r.Host
	return u.String(), nil
}

func writeReport(w http.ResponseWriter, renderer render.Renderer, rep *report.Report) {
	var buf bytes.Buffer
	if err := render.Write(&buf, renderer, rep); err != nil {
		log.Error().Err(err).Str("format", renderer.Format()).Msg("web: render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
