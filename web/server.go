package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"race-report/render"
	"race-report/report"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// TopDelimiter is the number of leading finishers separated from the rest on
// the report page.
const TopDelimiter = 15

// ReportBuilder builds a fresh report in the requested order.
type ReportBuilder interface {
	Build(order report.Order) (*report.Report, error)
}

// Server serves the HTML report pages and the REST API. It keeps no report
// state; every request builds its own report.
type Server struct {
	builder     ReportBuilder
	pages       map[string]*template.Template
	driverRoute *mux.Route
}

func NewServer(b ReportBuilder) (*Server, error) {
	s := &Server{builder: b, pages: make(map[string]*template.Template)}
	for _, name := range []string{"index.html", "drivers.html", "driver.html"} {
		tpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		s.pages[name] = tpl
	}
	return s, nil
}

// Register mounts the HTML pages and the /api/v1 resources on r.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/report", s.ReportPage).Methods(http.MethodGet)
	r.HandleFunc("/report/drivers/", s.DriversPage).Methods(http.MethodGet)
	r.HandleFunc("/report/drivers/{name}", s.DriverPage).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/report/", s.ReportAPI).Methods(http.MethodGet)
	api.HandleFunc("/report/drivers/", s.DriversAPI).Methods(http.MethodGet)
	s.driverRoute = api.HandleFunc("/report/drivers/{name}/", s.DriverAPI).Methods(http.MethodGet).Name("driver-api")
}

// build parses the order query parameter and builds a report, writing the
// error response itself when it fails.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (*report.Report, report.Order, bool) {
	order, err := report.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, r, err)
		return nil, "", false
	}
	rep, err := s.builder.Build(order)
	if err != nil {
		writeError(w, r, err)
		return nil, "", false
	}
	return rep, order, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidOrder), errors.Is(err, render.ErrUnsupportedFormat):
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("web: bad request")
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("web: report build failed")
		http.Error(w, "report unavailable", http.StatusInternalServerError)
	}
}
