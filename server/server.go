package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"trp_review/audit"
	"trp_review/config"
	"trp_review/observability"
	"trp_review/review"
)

// Server exposes the review loop over HTTP: an HTML form flow, a JSON API, and
// the operational endpoints.
type Server struct {
	llm    review.LLMClient
	llmErr string // non-empty when the client could not be built at startup
	cfg    config.Config
	store  *sessionStore
	logger *log.Logger
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*review.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*review.Session)}
}

func (s *sessionStore) set(sess *review.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *sessionStore) get(id string) (*review.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// New builds a Server. llm may be nil when startup diagnostics found no usable
// credential; requests then fail with a clear 503 instead of a silent no-op.
func New(llm review.LLMClient, llmErr string, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		llm:    llm,
		llmErr: llmErr,
		cfg:    cfg,
		store:  newStore(),
		logger: logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/review", s.handleReviewForm)
	mux.HandleFunc("/api/reviews", s.handleReviewCreate)
	mux.HandleFunc("/api/reviews/", s.handleReviewByID)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", observability.Handler())
	return s.logMiddleware(mux)
}

// runReview executes one full review with a fresh audit trail. The returned
// session may be non-nil even when err is set (completed loops survive).
func (s *Server) runReview(ctx context.Context, document string, maxLoops int) (*review.Session, string, error) {
	if s.llm == nil {
		return nil, "", fmt.Errorf("llm client unavailable: %s", s.llmErr)
	}

	trail, err := audit.NewTrail(s.cfg.AuditDir)
	if err != nil {
		return nil, "", err
	}
	reviewer, err := review.NewReviewer(s.llm, review.Options{
		Trail:            trail,
		MaxDocumentBytes: s.cfg.MaxDocumentBytes,
		Logger:           s.logger,
	})
	if err != nil {
		return nil, "", err
	}

	if maxLoops <= 0 {
		maxLoops = s.cfg.MaxLoops
	}
	// Three LLM calls per loop share one per-call budget each.
	budget := time.Duration(s.cfg.LLMTimeoutSeconds) * time.Second * time.Duration(3*maxLoops)
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	sess, err := reviewer.Run(ctx, document, maxLoops)
	if sess != nil {
		s.store.set(sess)
	}
	return sess, trail.Path(), err
}

// --- JSON API ---

type reviewCreateReq struct {
	Document string `json:"document"`
	MaxLoops int    `json:"max_loops,omitempty"`
}

type reviewResp struct {
	ReviewID      string        `json:"review_id"`
	FinalDocument string        `json:"final_document"`
	Converged     bool          `json:"converged"`
	CappedOut     bool          `json:"capped_out"`
	StopReason    string        `json:"stop_reason"`
	Loops         []review.Loop `json:"loops"`
	AuditFile     string        `json:"audit_file,omitempty"`
	Error         string        `json:"error,omitempty"`
}

func sessionResp(sess *review.Session, auditFile, errMsg string) reviewResp {
	resp := reviewResp{AuditFile: auditFile, Error: errMsg}
	if sess != nil {
		resp.ReviewID = sess.ID
		resp.FinalDocument = sess.Final
		resp.Converged = sess.Converged
		resp.CappedOut = sess.CappedOut
		resp.StopReason = sess.StopReason
		resp.Loops = sess.Loops
	}
	return resp
}

func (s *Server) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reviewCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.MaxLoops < 0 || req.MaxLoops > review.MaxLoopCeiling {
		http.Error(w, fmt.Sprintf("max_loops must be between 1 and %d", review.MaxLoopCeiling), http.StatusBadRequest)
		return
	}
	if s.llm == nil {
		http.Error(w, s.clientUnavailableMessage(), http.StatusServiceUnavailable)
		return
	}

	sess, auditFile, err := s.runReview(r.Context(), req.Document, req.MaxLoops)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResp(sess, auditFile, ""))
	case errors.Is(err, review.ErrEmptyDocument), errors.Is(err, review.ErrDocumentTooLarge):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		// Completed loops ride along in the body next to the error.
		writeJSON(w, http.StatusBadGateway, sessionResp(sess, auditFile, err.Error()))
	}
}

func (s *Server) handleReviewByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/reviews/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	export := strings.HasSuffix(id, "/export")
	sess, ok := s.store.get(strings.TrimSuffix(id, "/export"))
	if !ok {
		http.Error(w, "review not found", http.StatusNotFound)
		return
	}
	if export {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := audit.WriteHTML(w, sess); err != nil {
			s.logger.Printf("[server] export failed: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, sessionResp(sess, "", ""))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) clientUnavailableMessage() string {
	return "The LLM client could not be initialized at startup, so reviews cannot run. " +
		"Check the startup diagnostics and verify your API key. Detail: " + s.llmErr
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("[http] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
