package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/models"
	"github.com/hyperjump/bunsho/internal/rag"
)

const codeValidation = "validation"

type questionRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"pipeline": s.sessions.Pipeline().Info(),
		"sessions": s.sessions.Len(),
	}
	if sized, ok := s.transcript.(interface{ SizeBytes() (int64, error) }); ok {
		if n, err := sized.SizeBytes(); err == nil {
			resp["transcript_bytes"] = n
		} else {
			s.logger.Warn("status: transcript size failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.logger.Debug("session created", zap.String("session", sess.ID()))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.logger.Debug("session deleted", zap.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	limit := s.config.MaxUploadBytes
	if r.ContentLength > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request_too_large",
			fmt.Sprintf("document exceeds %d bytes", limit))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	doc, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request_too_large",
				fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		if errors.Is(err, models.ErrUnsupportedFormat) {
			s.respondFailure(w, err)
			return
		}
		s.respondError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	s.logger.Debug("analyze request",
		zap.String("session", sess.ID()),
		zap.String("document", doc.Name),
		zap.Int("bytes", len(doc.Content)))
	info, err := sess.Analyze(r.Context(), doc)
	if err != nil {
		s.logger.Error("analysis failed", zap.String("session", sess.ID()), zap.Error(err))
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

// readUpload reads the multipart "file" part. The optional "type" field overrides the type
// inferred from the file name.
func readUpload(r *http.Request) (*models.Document, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	var mediaType models.MediaType
	if declared := strings.TrimSpace(r.FormValue("type")); declared != "" {
		mediaType, err = models.ParseMediaType(declared)
	} else {
		mediaType, err = models.MediaTypeFromFilename(header.Filename)
	}
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &models.Document{Name: header.Filename, MediaType: mediaType, Content: content}, nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, e := range verrs {
				fields[strings.ToLower(e.Field())] = fmt.Sprintf("failed on '%s' tag", e.Tag())
			}
			s.respondJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "invalid question",
				Code:   codeValidation,
				Fields: fields,
			})
			return
		}
		s.respondError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	s.logger.Debug("question request", zap.String("session", sess.ID()), zap.String("question", req.Question))
	answer, err := sess.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("question failed", zap.String("session", sess.ID()), zap.Error(err))
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	turns, err := sess.Transcript(r.Context())
	if err != nil {
		s.logger.Error("transcript failed", zap.String("session", sess.ID()), zap.Error(err))
		s.respondFailure(w, err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		page, err := renderTranscript(sess.ID(), turns)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"session": sess.ID(), "turns": turns})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*rag.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, err)
		return nil, false
	}
	return sess, true
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) (int, string) {
	if errors.Is(err, rag.ErrSessionNotFound) {
		return http.StatusNotFound, "session_not_found"
	}
	code := models.ErrorCode(err)
	switch code {
	case "unsupported_format":
		return http.StatusUnsupportedMediaType, code
	case "extraction_failed", "empty_document":
		return http.StatusUnprocessableEntity, code
	case "not_analyzed":
		return http.StatusConflict, code
	case "embedding_backend_unavailable", "no_backend_available":
		return http.StatusServiceUnavailable, code
	case "generation_failed":
		return http.StatusBadGateway, code
	case "empty_question":
		return http.StatusBadRequest, codeValidation
	}
	return http.StatusInternalServerError, code
}

func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	s.respondError(w, status, code, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Error: message, Code: code})
}
