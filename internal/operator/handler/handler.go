// Package handler exposes the operator API. Mounted behind the operator
// token middleware, outside the tenant-authenticated subtree.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clinica/internal/operator/service"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/httputil"
	"clinica/pkg/requestcontext"
)

// Service defines the operator operations the HTTP layer depends on.
type Service interface {
	ListClinics(ctx context.Context, reason string) ([]*models.Tenant, error)
	GetClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error)
	SuspendClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error)
	ReactivateClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error)
	CancelClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error)
	SeedSharedCatalog(ctx context.Context, items []service.SeedItem, reason string) ([]*models.CatalogItem, error)
}

// Handler wires operator endpoints to the operator service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an operator handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts operator endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants", h.HandleListClinics)
	r.Get("/tenants/{tenantID}", h.HandleGetClinic)
	r.Post("/tenants/{tenantID}/suspend", h.HandleSuspend)
	r.Post("/tenants/{tenantID}/reactivate", h.HandleReactivate)
	r.Post("/tenants/{tenantID}/cancel", h.HandleCancel)
	r.Post("/catalog/seed", h.HandleSeedCatalog)
}

// ReasonRequest carries the operator's stated reason for a lifecycle action.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (r *ReasonRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// SeedCatalogRequest is the HTTP request body for POST /catalog/seed.
type SeedCatalogRequest struct {
	Reason string          `json:"reason"`
	Items  []SeedItemInput `json:"items"`
}

type SeedItemInput struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (r *SeedCatalogRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "items must not be empty")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Code) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "items[%d].code is required", i)
		}
		if strings.TrimSpace(item.Name) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "items[%d].name is required", i)
		}
		kind := strings.TrimSpace(strings.ToLower(item.Kind))
		if kind != "" && !models.CatalogKind(kind).IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "items[%d].kind %q is unknown", i, item.Kind)
		}
	}
	return nil
}

func (r *SeedCatalogRequest) ToService() []service.SeedItem {
	items := make([]service.SeedItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, service.SeedItem{
			Code: item.Code,
			Name: item.Name,
			Kind: models.CatalogKind(strings.TrimSpace(strings.ToLower(item.Kind))),
		})
	}
	return items
}

// ClinicListResponse is the HTTP response body for GET /tenants.
type ClinicListResponse struct {
	Tenants []*models.Tenant `json:"tenants"`
}

// CatalogSeedResponse is the HTTP response body for POST /catalog/seed.
type CatalogSeedResponse struct {
	Items []*models.CatalogItem `json:"items"`
}

// HandleListClinics handles GET /tenants requests. The reason query
// parameter is required; every listing crosses tenant boundaries.
func (h *Handler) HandleListClinics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if reason == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reason query parameter is required"))
		return
	}

	tenants, err := h.service.ListClinics(ctx, reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClinicListResponse{Tenants: tenants})
}

// HandleGetClinic handles GET /tenants/{tenantID} requests.
func (h *Handler) HandleGetClinic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if reason == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reason query parameter is required"))
		return
	}

	tenant, err := h.service.GetClinic(ctx, tenantID, reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

// HandleSuspend handles POST /tenants/{tenantID}/suspend requests.
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "suspend", h.service.SuspendClinic)
}

// HandleReactivate handles POST /tenants/{tenantID}/reactivate requests.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reactivate", h.service.ReactivateClinic)
}

// HandleCancel handles POST /tenants/{tenantID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", h.service.CancelClinic)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, id.TenantID, string) (*models.Tenant, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := fn(ctx, tenantID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "clinic lifecycle action failed",
			"request_id", requestID,
			"action", action,
			"tenant_id", tenantID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "clinic lifecycle action applied",
		"request_id", requestID,
		"action", action,
		"tenant_id", tenantID.String(),
		"status", tenant.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

// HandleSeedCatalog handles POST /catalog/seed requests.
func (h *Handler) HandleSeedCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SeedCatalogRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	items, err := h.service.SeedSharedCatalog(ctx, req.ToService(), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CatalogSeedResponse{Items: items})
}
