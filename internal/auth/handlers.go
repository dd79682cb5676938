package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/synapaxon/question-bank/internal/auth/jwt"
	"github.com/synapaxon/question-bank/pkg/http/envelope"
)

// UsageReader reports today's AI generation count for an account.
type UsageReader interface {
	Used(ctx context.Context, userID string) (int, error)
}

// HTTPHandlers provides REST endpoints for authentication and account
// management.
type HTTPHandlers struct {
	authSvc  *Service
	oauthSvc *OAuthService
	usage    UsageReader
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, oauthSvc *OAuthService, usage UsageReader, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc:  authSvc,
		oauthSvc: oauthSvc,
		usage:    usage,
		logger:   logger,
	}
}

// Register handles POST /api/auth/register.
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, token, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		envelope.BadRequest(w, envelope.CodeRegistrationFailed, err.Error())
		return
	}

	envelope.OK(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login.
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		envelope.Unauthorized(w, envelope.CodeLoginFailed, err.Error())
		return
	}

	envelope.OK(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe handles GET /api/auth/me (behind RequireAuth).
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := jwt.FromContext(r.Context())
	if claims == nil {
		envelope.Unauthorized(w, envelope.CodeUnauthorized, "Invalid or missing token")
		return
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		envelope.Unauthorized(w, envelope.CodeInvalidToken, "Invalid token subject")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), id)
	if err != nil {
		envelope.NotFound(w, "User not found")
		return
	}

	used := 0
	if h.usage != nil {
		if n, err := h.usage.Used(r.Context(), claims.UserID); err == nil {
			used = n
		} else {
			h.logger.Warn().Err(err).Msg("failed to read AI usage")
		}
	}

	envelope.OK(w, http.StatusOK, map[string]interface{}{
		"_id":          user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"role":         user.Role,
		"plan":         user.Plan,
		"aiUsageCount": used,
		"aiUsageLimit": user.AIUsageLimit,
	})
}

// GoogleStart handles GET /api/auth/google: it sets the CSRF state cookie
// and redirects the browser to Google's consent screen.
func (h *HTTPHandlers) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.oauthSvc == nil {
		envelope.Fail(w, http.StatusServiceUnavailable, envelope.CodeOAuthNotConfigured, "Google sign-in is not configured")
		return
	}

	state := uuid.New().String()
	authURL, err := h.oauthSvc.AuthURL(state)
	if err != nil {
		envelope.BadRequest(w, envelope.CodeOAuthStartFailed, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/auth/google/callback.
func (h *HTTPHandlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauthSvc == nil {
		envelope.Fail(w, http.StatusServiceUnavailable, envelope.CodeOAuthNotConfigured, "Google sign-in is not configured")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		envelope.BadRequest(w, envelope.CodeOAuthMissingCode, "Authorization code required")
		return
	}

	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state {
		envelope.BadRequest(w, envelope.CodeOAuthInvalidState, "Invalid or missing state parameter")
		return
	}

	info, err := h.oauthSvc.Exchange(r.Context(), code)
	if err != nil {
		envelope.BadRequest(w, envelope.CodeOAuthCallbackFailed, err.Error())
		return
	}

	user, token, err := h.authSvc.LoginWithGoogle(r.Context(), info)
	if err != nil {
		envelope.Internal(w, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	})

	envelope.OK(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetAllUsers handles GET /api/auth/users (admin).
func (h *HTTPHandlers) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		envelope.Internal(w, "Failed to list users")
		return
	}
	envelope.OKCount(w, http.StatusOK, len(users), users)
}

// UpdateUser handles PUT /api/auth/users/{id} (admin).
func (h *HTTPHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, err := h.authSvc.UpdateUser(r.Context(), id, req)
	if err != nil {
		if err == ErrUserNotFound {
			envelope.NotFound(w, "User not found")
			return
		}
		envelope.BadRequest(w, envelope.CodeInvalidRequest, err.Error())
		return
	}
	envelope.OK(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/auth/users/{id} (admin).
func (h *HTTPHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		envelope.BadRequest(w, envelope.CodeInvalidRequest, "Invalid user id")
		return
	}

	if err := h.authSvc.DeleteUser(r.Context(), id); err != nil {
		if err == ErrUserNotFound {
			envelope.NotFound(w, "User not found")
			return
		}
		envelope.Internal(w, "Failed to delete user")
		return
	}
	envelope.OKMessage(w, http.StatusOK, "User deleted successfully")
}

// GetUsersCount handles GET /api/auth/users/count (admin).
func (h *HTTPHandlers) GetUsersCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.authSvc.CountUsers(r.Context())
	if err != nil {
		envelope.Internal(w, "Failed to count users")
		return
	}
	envelope.OK(w, http.StatusOK, map[string]interface{}{"totalUsers": count})
}

// GetUsersByPlans handles GET /api/auth/users/plans (admin).
func (h *HTTPHandlers) GetUsersByPlans(w http.ResponseWriter, r *http.Request) {
	counts, err := h.authSvc.UsersByPlan(r.Context())
	if err != nil {
		envelope.Internal(w, "Failed to group users by plan")
		return
	}
	envelope.OK(w, http.StatusOK, counts)
}
