// Package status serves a read-only JSON view of the running engine.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/extractor"
	"github.com/Bhuvan-2005/SecLyzer/internal/ingest"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// CounterSource reports ingestion counters.
type CounterSource interface {
	Counters() ingest.Counters
}

// Handler holds the components the endpoints read from.
type Handler struct {
	tracker    *usage.Tracker
	extractors []extractor.StatsProvider
	counters   CounterSource
}

// NewHandler builds the endpoints. A nil tracker answers 404 on the app
// routes; nil counters report zeros.
func NewHandler(tracker *usage.Tracker, counters CounterSource, extractors ...extractor.StatsProvider) *Handler {
	return &Handler{tracker: tracker, extractors: extractors, counters: counters}
}

// Routes mounts the status endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/app/state", h.AppState)
		r.Get("/app/recent", h.AppRecent)
		r.Get("/extractors", h.Extractors)
		r.Get("/ingest", h.Ingest)
	})
}

// Router returns a chi router with the endpoints mounted.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	h.Routes(r)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AppState(w http.ResponseWriter, _ *http.Request) {
	if h.tracker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "app tracking disabled"})
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.State())
}

func (h *Handler) AppRecent(w http.ResponseWriter, _ *http.Request) {
	if h.tracker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "app tracking disabled"})
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.RecentEvents())
}

func (h *Handler) Extractors(w http.ResponseWriter, _ *http.Request) {
	out := make([]extractor.Stats, 0, len(h.extractors))
	for _, e := range h.extractors {
		out = append(out, e.Stats())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Ingest(w http.ResponseWriter, _ *http.Request) {
	if h.counters == nil {
		writeJSON(w, http.StatusOK, ingest.Counters{})
		return
	}
	writeJSON(w, http.StatusOK, h.counters.Counters())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	errFactory := errors.New()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errFactory.Wrap(errors.ErrStatusServe, err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Status server listening")

	select {
	case err := <-errCh:
		return errFactory.Wrap(errors.ErrStatusServe, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
