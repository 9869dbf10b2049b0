package hazardzone

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/hazardzone/entity"
	"github.com/safesite/service-compliance-core/internal/httpx"
	protoentity "github.com/safesite/service-compliance-core/internal/protocol/entity"
)

// Handler exposes hazard-zone CRUD endpoints.
type Handler struct {
	svc    *ZoneService
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: NewZoneService(db), logger: logger}
}

type zoneRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type zoneUpdateRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type zoneWithProtocols struct {
	*entity.HazardZone
	Protocols []protoentity.Protocol `json:"protocols"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	z, err := h.svc.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		h.logger.Debugw("create hazard zone failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, z)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Warnw("list hazard zones failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, zones)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	z, protocols, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, zoneWithProtocols{HazardZone: z, Protocols: protocols})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req zoneUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperror.Validation("invalid payload"))
		return
	}
	z, err := h.svc.Update(r.Context(), r.PathValue("id"), req.Name, req.Color)
	if err != nil {
		h.logger.Debugw("update hazard zone failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, z)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Hazard zone deleted successfully"})
}
