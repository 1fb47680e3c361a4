package health

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Register adds /healthz and /readyz. Readiness fails while any of files
// cannot be opened.
func Register(r *mux.Router, files ...string) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		for _, f := range files {
			fh, err := os.Open(f)
			if err != nil {
				log.Warn().Err(err).Str("file", f).Msg("health: data file not readable")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
			_ = fh.Close()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)
}
