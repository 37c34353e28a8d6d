package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"timetable-ics/config"
	"timetable-ics/export"
	"timetable-ics/timetable"
)

const maxRequestBytes = 1 << 20

var indexTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html>
<head><title>Timetable export</title></head>
<body>
<h1>Timetable export</h1>
<p>POST a timetable as JSON to <code>/export</code> to receive an iCalendar file.</p>
<h2>Known semesters</h2>
<ul>
{{range .}}<li>{{.}}</li>
{{end}}</ul>
</body>
</html>`))

// Server serves calendar exports over HTTP.
type Server struct {
	cfg       *config.Config
	holidays  []time.Time
	assembler *timetable.Assembler
	logger    *slog.Logger
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(cfg *config.Config, holidays []time.Time, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		holidays: holidays,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.assembler = timetable.NewAssembler(timetable.WithLogger(s.logger))
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)
	mux.HandleFunc("POST /export", s.exportHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	var semesters []string
	for year, sems := range s.cfg.AcademicCalendar {
		for sem := range sems {
			semesters = append(semesters, fmt.Sprintf("%s semester %s", year, sem))
		}
	}
	sort.Strings(semesters)
	if err := indexTemplate.Execute(w, semesters); err != nil {
		s.logger.Error("error rendering index", "error", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	var req timetable.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	sem, err := s.cfg.Semester(req.AcademicYear, req.Semester, s.holidays)
	if errors.Is(err, config.ErrUnknownSemester) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("error resolving semester", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	events := s.assembler.Events(sem, req.Timetable, req.Modules, req.Hidden)

	var buf bytes.Buffer
	if err := export.Write(&buf, events); err != nil {
		s.logger.Error("error writing calendar", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("exported timetable", "academicYear", req.AcademicYear, "semester", req.Semester, "events", len(events))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timetable.ics"`)
	_, _ = w.Write(buf.Bytes())
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartServer(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- server.ListenAndServe()
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
		return server.Shutdown(shutdownCtx)
	}
}
