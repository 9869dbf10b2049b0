package user

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/auth"
	"github.com/safesite/service-compliance-core/internal/httpx"
	"github.com/safesite/service-compliance-core/internal/user/entity"
)

// Handler exposes the registration and login endpoints.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger, authCfg auth.Config) *Handler {
	return &Handler{svc: NewUserService(db, nil, authCfg), logger: logger}
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
	Token   string       `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	u, token, err := h.svc.Register(r.Context(), RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.logger.Debugw("register failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, AuthResponse{
		Message: "Welcome to SafeSite! Your account is active.",
		User:    u,
		Token:   token,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	u, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Access granted. Stay safe out there.",
		User:    u,
		Token:   token,
	})
}
