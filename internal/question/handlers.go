package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/synapaxon/question-bank/internal/auth/jwt"
	"github.com/synapaxon/question-bank/internal/quota"
	"github.com/synapaxon/question-bank/pkg/http/envelope"
)

// HTTPHandlers provides REST endpoints for the question bank.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for question endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// aiGenerateBody is the wire shape of a generation request.
type aiGenerateBody struct {
	Text         string `json:"text"`
	Instructions string `json:"instructions"`
	LiteralMode  bool   `json:"literalMode"`
}

// Create handles POST /api/questions.
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}

	created, err := h.svc.Create(r.Context(), caller, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OK(w, http.StatusCreated, created)
}

// List handles GET /api/questions.
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	questions, err := h.svc.List(r.Context(), caller, ParseListParams(r.URL.Query()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OKCount(w, http.StatusOK, len(questions), questions)
}

// Get handles GET /api/questions/{id}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid question id")
		return
	}

	q, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OK(w, http.StatusOK, q)
}

// Update handles PUT /api/questions/{id}.
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid question id")
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}

	updated, err := h.svc.Update(r.Context(), caller, id, body)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			envelope.Forbidden(w, "Not authorized to update this question")
			return
		}
		h.writeError(w, err)
		return
	}
	envelope.OK(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/questions/{id}.
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid question id")
		return
	}

	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		if errors.Is(err, ErrForbidden) {
			envelope.Forbidden(w, "Not authorized to delete this question")
			return
		}
		h.writeError(w, err)
		return
	}
	envelope.OKMessage(w, http.StatusOK, "Question deleted successfully")
}

// Tags handles GET /api/questions/tags.
func (h *HTTPHandlers) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OKCount(w, http.StatusOK, len(tags), tags)
}

// Total handles GET /api/questions/count (admin).
func (h *HTTPHandlers) Total(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.TotalApproved(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OK(w, http.StatusOK, map[string]interface{}{"totalQuestions": total})
}

// Generate handles POST /api/ai/generate-questions-from-text.
func (h *HTTPHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	claims := jwt.FromContext(r.Context())
	if claims == nil {
		envelope.Unauthorized(w, envelope.CodeUnauthorized, "Invalid or missing token")
		return
	}

	var body aiGenerateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		envelope.BadRequest(w, envelope.CodeMissingField, "Text is required")
		return
	}

	limit := quota.LimitForPlan(claims.Plan)
	questions, err := h.svc.GenerateFromText(r.Context(), claims.UserID, limit, AIGenerateRequest{
		Text:         body.Text,
		Instructions: body.Instructions,
		LiteralMode:  body.LiteralMode,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	envelope.OKCount(w, http.StatusOK, len(questions), questions)
}

// writeError maps domain errors onto the response envelope.
func (h *HTTPHandlers) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		envelope.BadRequest(w, verr.Code, verr.Message)
	case errors.Is(err, ErrNotFound):
		envelope.NotFound(w, "Question not found")
	case errors.Is(err, ErrForbidden):
		envelope.Forbidden(w, err.Error())
	case errors.Is(err, ErrForbiddenScope):
		envelope.Forbidden(w, "You are not authorized to view other users' questions.")
	case errors.Is(err, ErrQuotaExceeded):
		envelope.QuotaExceeded(w, "Daily AI usage limit reached. Upgrade your plan or try again tomorrow.")
	case errors.Is(err, ErrUpstream):
		envelope.Fail(w, http.StatusInternalServerError, envelope.CodeUpstreamError, "Failed to generate questions")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		envelope.Internal(w, "Something went wrong")
	}
}

// callerIdentity converts middleware claims into a domain identity. It writes
// the failure response itself so handlers can bail with a bare return.
func callerIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	claims := jwt.FromContext(r.Context())
	if claims == nil {
		envelope.Unauthorized(w, envelope.CodeUnauthorized, "Invalid or missing token")
		return Identity{}, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		envelope.Unauthorized(w, envelope.CodeInvalidToken, "Invalid token subject")
		return Identity{}, false
	}
	return Identity{UserID: userID, Role: claims.Role}, true
}
