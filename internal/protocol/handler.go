package protocol

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/auth"
	"github.com/safesite/service-compliance-core/internal/httpx"
)

// Handler exposes protocol and compliance-log endpoints. All of them run
// behind the auth middleware, so a missing identity is a server bug surfaced
// as 401 rather than a panic.
type Handler struct {
	svc    *ProtocolService
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: NewProtocolService(db), logger: logger}
}

func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Identity{}, apperror.Authentication("not authenticated")
	}
	return id, nil
}

type createRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Frequency   string   `json:"frequency"`
	TargetCount int      `json:"targetCount"`
	ZoneIDs     []string `json:"zoneIds"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	p, err := h.svc.Create(r.Context(), id.UserID, CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		TargetCount: req.TargetCount,
		ZoneIDs:     req.ZoneIDs,
	})
	if err != nil {
		h.logger.Debugw("create protocol failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	protocols, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Warnw("list protocols failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocols)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	p, err := h.svc.GetByID(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// updateRequest distinguishes "zoneIds absent" (nil pointer, association set
// untouched) from "zoneIds: []" (clear the set).
type updateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Frequency   *string   `json:"frequency"`
	TargetCount *int      `json:"targetCount"`
	IsActive    *bool     `json:"isActive"`
	ZoneIDs     *[]string `json:"zoneIds"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	p, err := h.svc.Update(r.Context(), id.UserID, r.PathValue("id"), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		TargetCount: req.TargetCount,
		IsActive:    req.IsActive,
		ZoneIDs:     req.ZoneIDs,
	})
	if err != nil {
		h.logger.Debugw("update protocol failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Protocol deleted successfully"})
}

type logRequest struct {
	CompletionDate *time.Time `json:"completionDate"`
	Note           *string    `json:"note"`
}

func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	l, err := h.svc.CreateLog(r.Context(), id.UserID, r.PathValue("id"), LogInput{
		CompletionDate: req.CompletionDate,
		Note:           req.Note,
	})
	if err != nil {
		h.logger.Debugw("create compliance log failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, l)
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	logs, err := h.svc.ListLogs(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}
