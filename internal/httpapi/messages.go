package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "asha-assistant/internal/common/errors"
	"asha-assistant/internal/common/events"
	"asha-assistant/internal/common/metrics"
	"asha-assistant/internal/common/validation"
	"asha-assistant/internal/models"
	detectlanguage "asha-assistant/internal/workers/ai-conversation/detect-language"
)

type createMessageRequest struct {
	Role             models.Role `json:"role"`
	Content          string      `json:"content"`
	SessionID        string      `json:"sessionId"`
	LanguageOverride string      `json:"languageOverride,omitempty"`
}

type createMessageResponse struct {
	UserMessage        models.ConversationTurn   `json:"userMessage"`
	AssistantMessage   models.ConversationTurn   `json:"assistantMessage"`
	ConfidenceAnalysis models.ConfidenceAnalysis `json:"confidenceAnalysis"`
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewValidationError("request body is too large or unreadable"), "")
		return
	}

	result, err := validation.ValidateMessageRequest(raw)
	if err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewValidationError("request body is not valid JSON"), "")
		return
	}
	if !result.Valid {
		s.errors.HandleHTTPError(w, r, apperrors.NewValidationError(result.Summary()), "")
		return
	}

	var req createMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewValidationError(err.Error()), "")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.errors.HandleHTTPError(w, r, apperrors.NewValidationError("content: must not be blank"), "")
		return
	}

	var override models.Language
	if req.LanguageOverride != "" {
		override, err = detectlanguage.Parse(req.LanguageOverride)
		if err != nil {
			s.errors.HandleHTTPError(w, r, apperrors.NewValidationError("languageOverride: "+err.Error()), "")
			return
		}
	}

	ctx := r.Context()
	history, err := s.store.GetMessages(ctx, req.SessionID)
	if err != nil {
		s.storeFailure(w, r, "getMessages", err, "Error processing message")
		return
	}

	userTurn, err := s.store.AddMessage(ctx, models.NewTurn{
		Role:      models.RoleUser,
		Content:   req.Content,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.storeFailure(w, r, "addMessage", err, "Error processing message")
		return
	}

	resp := s.responder.Respond(ctx, models.PipelineRequest{
		SessionID:        req.SessionID,
		UserText:         req.Content,
		SessionHistory:   history,
		LanguageOverride: override,
	})

	assistantTurn, err := s.store.AddMessage(ctx, models.NewTurn{
		Role:      models.RoleAssistant,
		Content:   resp.Text,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.storeFailure(w, r, "addMessage", err, "Error processing message")
		return
	}

	respondJSON(w, http.StatusOK, createMessageResponse{
		UserMessage:        userTurn,
		AssistantMessage:   assistantTurn,
		ConfidenceAnalysis: resp.Sentiment,
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	turns, err := s.store.GetMessages(r.Context(), sessionID)
	if err != nil {
		s.storeFailure(w, r, "getMessages", err, "")
		respondError(w, http.StatusInternalServerError, "Error fetching messages")
		return
	}
	if turns == nil {
		turns = []models.ConversationTurn{}
	}
	respondJSON(w, http.StatusOK, turns)
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := s.store.ClearMessages(r.Context(), sessionID); err != nil {
		s.storeFailure(w, r, "clearMessages", err, "")
		respondError(w, http.StatusInternalServerError, "Error clearing messages")
		return
	}

	if err := s.events.Publish(r.Context(), events.New(events.SessionEnd, sessionID, nil)); err != nil {
		s.logger.Warn("failed to publish event", map[string]interface{}{
			"event": events.SessionEnd,
			"error": err.Error(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// storeFailure counts and reports a store error. With a message it also writes the
// error body; without one only the log is written and the caller responds.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, op string, err error, message string) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	storeErr := apperrors.NewStoreError(op, err)
	if message != "" {
		s.errors.HandleHTTPError(w, r, storeErr, message)
		return
	}
	s.logger.Error("request failed", map[string]interface{}{
		"errorCode": string(storeErr.Code),
		"operation": op,
		"details":   storeErr.Details,
		"path":      r.URL.Path,
	})
}
