package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/api/middleware"
	"github.com/hugh/blogit/internal/auth"
)

type UserHandler struct {
	authService auth.Authenticator
	logger      *slog.Logger
}

func NewUserHandler(authService auth.Authenticator, logger *slog.Logger) *UserHandler {
	return &UserHandler{authService: authService, logger: logger}
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.authService.Signup(r.Context(), auth.SignupInput{
		Name:                 req.User.Name,
		Email:                req.User.Email,
		Password:             req.User.Password,
		PasswordConfirmation: req.User.PasswordConfirmation,
		Organization:         req.User.Organization,
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NoticeResponse{Notice: "Signed up successfully"})
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	writeJSON(w, http.StatusOK, dto.UserResponse{
		ID:    actor.UserID.String(),
		Name:  actor.Name,
		Email: actor.Email,
	})
}
