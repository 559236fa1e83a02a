package http

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"symptrack/internal/core"
	"symptrack/pkg"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	// AnalyzePath is the path browsers already call; APIAnalyzePath is an
	// alias for non-browser clients.
	AnalyzePath    = "/functions/v1/analyze-symptoms"
	APIAnalyzePath = "/api/analyze"

	// AnalyzingText is the transient transcript line shown while the page
	// waits for an analysis.
	AnalyzingText = "Analyzing your symptoms..."

	journalWriteTimeout = 5 * time.Second
	riskCountWindow     = 7 * 24 * time.Hour
)

// Analyzer is the analysis service the endpoint delegates to.
type Analyzer interface {
	Analyze(ctx context.Context, symptoms string) (*pkg.AnalysisResult, error)
}

// Journal is the optional operator journal.
type Journal interface {
	RecordAnalysis(ctx context.Context, symptoms string, res *pkg.AnalysisResult) (*pkg.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]pkg.AnalysisRecord, error)
	RiskCounts(ctx context.Context, since time.Time) (map[pkg.RiskLevel]int, error)
	Ping(ctx context.Context) error
}

// Notifier fans journal events out to dashboards.
type Notifier interface {
	Notify(ctx context.Context, recordID string) error
	Listen(ctx context.Context) (<-chan string, error)
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler; use Handler to get it wrapped in the CORS and
// logging middleware.
type Server struct {
	Analyzer  Analyzer
	Journal   Journal
	Notifier  Notifier
	Logger    *slog.Logger
	Templates *template.Template

	background sync.WaitGroup
	closing    chan struct{}
	closeOnce  sync.Once
}

// NewServer constructs a Server.  journal and notifier may be nil, in which
// case the journal routes answer 404 and nothing is recorded.
func NewServer(analyzer Analyzer, journal Journal, notifier Notifier, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Analyzer:  analyzer,
		Journal:   journal,
		Notifier:  notifier,
		Logger:    logger,
		Templates: tmpl,
		closing:   make(chan struct{}),
	}, nil
}

// Handler returns the server wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(loggingMiddleware(s.Logger, s))
}

// Wait blocks until background journal writes have finished.
func (s *Server) Wait() { s.background.Wait() }

// CloseStreams ends every open event stream.  http.Server.Shutdown does not
// cancel request contexts, so register this with RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() {
		if s.closing != nil {
			close(s.closing)
		}
	})
}

// ServeHTTP dispatches incoming requests based on the URL path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == AnalyzePath || path == APIAnalyzePath:
		s.handleAnalyze(w, r)
	case path == "/api/analyses/stream" && r.Method == http.MethodGet && s.Notifier != nil:
		s.handleAnalysesStream(w, r)
	case path == "/api/analyses" && r.Method == http.MethodGet && s.Journal != nil:
		s.handleListAnalyses(w, r)
	case path == "/health" && r.Method == http.MethodGet:
		s.handleHealth(w, r)
	case path == "" && r.Method == http.MethodGet:
		s.handleIndex(w, r)
	default:
		writeJSON(w, http.StatusNotFound, pkg.ErrorResponse{Error: "not found"})
	}
}

// handleAnalyze runs one symptom analysis.  The body is either the result
// or an error object, never both.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, pkg.ErrorResponse{Error: "method not allowed"})
		return
	}

	var req pkg.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		// An unreadable body is a generic failure, not missing input.
		s.Logger.Warn("invalid analysis body", "error", err)
		e := core.AsError(err)
		writeJSON(w, e.Status(), e.Response())
		return
	}

	res, err := s.Analyzer.Analyze(r.Context(), req.Symptoms)
	if err != nil {
		e := core.AsError(err)
		s.Logger.Info("analysis rejected", "code", e.Code, "status", e.Status())
		writeJSON(w, e.Status(), e.Response())
		return
	}

	s.record(req.Symptoms, res)
	writeJSON(w, http.StatusOK, res)
}

// record journals a result in the background.  Failures are logged only;
// the response to the client is already decided.
func (s *Server) record(symptoms string, res *pkg.AnalysisResult) {
	if s.Journal == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		rec, err := s.Journal.RecordAnalysis(ctx, symptoms, res)
		if err != nil {
			s.Logger.Error("failed to journal analysis", "error", err)
			return
		}
		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, rec.ID); err != nil {
				s.Logger.Warn("failed to notify", "id", rec.ID, "error", err)
			}
		}
	}()
}

// handleListAnalyses returns recent journal records and a per-risk tally of
// the last seven days.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records, err := s.Journal.ListRecent(ctx, limit)
	if err != nil {
		s.Logger.Error("failed to list analyses", "error", err)
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "failed to list analyses"})
		return
	}
	counts, err := s.Journal.RiskCounts(ctx, time.Now().Add(-riskCountWindow))
	if err != nil {
		s.Logger.Error("failed to count analyses", "error", err)
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "failed to list analyses"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyses":    records,
		"risk_counts": counts,
	})
}

// handleAnalysesStream emits an SSE event for every journalled analysis
// until the client disconnects.
func (s *Server) handleAnalysesStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "streaming unsupported"})
		return
	}
	ctx := r.Context()
	ids, err := s.Notifier.Listen(ctx)
	if err != nil {
		s.Logger.Error("failed to listen for analyses", "error", err)
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "stream unavailable"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		case id, ok := <-ids:
			if !ok {
				return
			}
			if err := sendEvent(w, map[string]string{"type": "analysis_recorded", "id": id}); err != nil {
				s.Logger.Warn("failed to send event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func sendEvent(w io.Writer, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "data: "+string(data)+"\n\n")
	return err
}

// handleHealth reports liveness and, when the journal is enabled, whether
// the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	status := http.StatusOK
	if s.Journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Journal.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["db"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp["db"] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

// handleIndex renders the browser chat page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Endpoint    string
		Placeholder string
	}{AnalyzePath, AnalyzingText}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.Logger.Error("failed to render index", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}
