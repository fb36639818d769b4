package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/auth"
)

type SessionHandler struct {
	authService auth.Authenticator
	logger      *slog.Logger
}

func NewSessionHandler(authService auth.Authenticator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{authService: authService, logger: logger}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Login.Email,
		Password: req.Login.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailRequired):
			writeError(w, http.StatusUnprocessableEntity, "Email is required")
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Incorrect credentials, try again.")
		default:
			writeFailure(w, r, h.logger, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		AuthenticationToken: session.Token,
		ID:                  session.User.ID.String(),
		Name:                session.User.Name,
	})
}
