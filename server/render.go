package server

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"trp_review/audit"
	"trp_review/config"
	"trp_review/review"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type loopView struct {
	Index        int
	CritiqueHTML template.HTML
	RevisionHTML template.HTML
	Rationale    string
}

type pageData struct {
	DocumentText    string
	Loops           []loopView
	FinalHTML       template.HTML
	StopReason      string
	AuditFile       string
	Complete        bool
	ErrorMessage    string
	StartupWarnings []config.Event
	ReviewID        string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, pageData{StartupWarnings: s.cfg.Warnings()})
}

func (s *Server) handleReviewForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	document := r.FormValue("document_text")
	data := pageData{StartupWarnings: s.cfg.Warnings()}

	if s.llm == nil {
		data.ErrorMessage = s.clientUnavailableMessage()
		data.DocumentText = document
		s.renderPage(w, data)
		return
	}

	sess, auditFile, err := s.runReview(r.Context(), document, 0)
	switch {
	case err == nil:
		data.Complete = true
	case errors.Is(err, review.ErrEmptyDocument):
		data.ErrorMessage = "Please provide document text for review."
	case errors.Is(err, review.ErrDocumentTooLarge):
		data.ErrorMessage = err.Error()
	default:
		data.ErrorMessage = "An error occurred while running the review: " + err.Error()
		data.DocumentText = document
	}

	if sess != nil {
		data.ReviewID = sess.ID
		data.StopReason = sess.StopReason
		data.AuditFile = auditFile
		for _, lp := range sess.Loops {
			critique, cerr := audit.RenderMarkdown(lp.Critique)
			revision, rerr := audit.RenderMarkdown(lp.Revision)
			if cerr != nil || rerr != nil {
				continue
			}
			data.Loops = append(data.Loops, loopView{
				Index:        lp.Index,
				CritiqueHTML: critique,
				RevisionHTML: revision,
				Rationale:    lp.Verdict.Rationale,
			})
		}
		if final, ferr := audit.RenderMarkdown(sess.Final); ferr == nil {
			data.FinalHTML = final
		}
	}
	s.renderPage(w, data)
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.logger.Printf("[server] template render failed: %v", err)
	}
}
