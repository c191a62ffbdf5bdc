package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/predictions"
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "footstats_web_requests_total",
		Help: "Requests served by the predictions web app.",
	},
	[]string{"route", "code"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Server serves the predictions page and its JSON api. The predictions file is read
// on every request so regenerated predictions show up without a restart.
type Server struct {
	predictionsPath string
	perPage         int
	http            *http.Server
}

// NewServer returns a Server reading predictionsPath and listening on addr
func NewServer(addr string, predictionsPath string, perPage int) *Server {
	if perPage < 1 {
		perPage = predictions.DefaultPerPage
	}
	s := &Server{predictionsPath: predictionsPath, perPage: perPage}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes configures the HTTP routes
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(countRequests)

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/api/matches", s.handleMatches).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving predictions on", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down web server")
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	set, err := predictions.Load(s.predictionsPath)
	if err != nil {
		logger.Error("Failed to load predictions", err)
		http.Error(w, "failed to load predictions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(set.Views()).Render(r.Context(), w); err != nil {
		logger.Error("Failed to render index", err)
	}
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	set, err := predictions.Load(s.predictionsPath)
	if err != nil {
		logger.Error("Failed to load predictions", err)
		http.Error(w, "failed to load predictions", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	perPage := intParam(q.Get("per_page"), s.perPage)
	team := strings.TrimSpace(q.Get("team"))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(set.FilterTeam(team).Page(page, perPage)); err != nil {
		logger.Error("Failed to encode matches", err)
	}
}

// intParam parses a query parameter, falling back to def when absent or malformed
func intParam(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	})
}
