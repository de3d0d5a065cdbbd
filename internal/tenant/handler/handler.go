package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	"clinica/internal/tenant/service"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/httputil"
	"clinica/pkg/requestcontext"
)

// Service defines the clinic operations the HTTP layer depends on.
type Service interface {
	RegisterClinic(ctx context.Context, req service.RegisterClinicRequest) (*service.Registration, error)
	Login(ctx context.Context, tenantID id.TenantID, email, password string) (string, *models.User, error)

	CreateDoctor(ctx context.Context, sc scope.Scope, req service.CreateDoctorRequest) (*models.Doctor, error)
	GetDoctor(ctx context.Context, sc scope.Scope, doctorID id.DoctorID) (*models.Doctor, error)
	ListDoctors(ctx context.Context, sc scope.Scope) ([]*models.Doctor, error)
	ListDoctorSchedule(ctx context.Context, sc scope.Scope, doctorID id.DoctorID, from, to time.Time) ([]*models.Appointment, error)

	CreatePatient(ctx context.Context, sc scope.Scope, req service.CreatePatientRequest) (*models.Patient, error)
	GetPatient(ctx context.Context, sc scope.Scope, patientID id.PatientID) (*models.Patient, error)
	ListPatients(ctx context.Context, sc scope.Scope) ([]*models.Patient, error)

	CreateAppointment(ctx context.Context, sc scope.Scope, req service.CreateAppointmentRequest) (*models.Appointment, error)
	GetAppointment(ctx context.Context, sc scope.Scope, appointmentID id.AppointmentID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, sc scope.Scope) ([]*models.Appointment, error)

	CreateCatalogItem(ctx context.Context, sc scope.Scope, req service.CreateCatalogItemRequest) (*models.CatalogItem, error)
	ListCatalog(ctx context.Context, sc scope.Scope) ([]*models.CatalogItem, error)

	GetProfile(ctx context.Context, sc scope.Scope) (*service.TenantProfile, error)
}

// Handler wires clinic endpoints to the tenant service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a clinic handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterPublic mounts the unauthenticated endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// Register mounts the tenant-scoped endpoints. The router must already run
// the tenant-resolution middleware; handlers refuse requests without a scope.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.HandleGetProfile)

	r.Post("/doctors", h.HandleCreateDoctor)
	r.Get("/doctors", h.HandleListDoctors)
	r.Get("/doctors/{doctorID}", h.HandleGetDoctor)
	r.Get("/doctors/{doctorID}/schedule", h.HandleDoctorSchedule)

	r.Post("/patients", h.HandleCreatePatient)
	r.Get("/patients", h.HandleListPatients)
	r.Get("/patients/{patientID}", h.HandleGetPatient)

	r.Post("/appointments", h.HandleCreateAppointment)
	r.Get("/appointments", h.HandleListAppointments)
	r.Get("/appointments/{appointmentID}", h.HandleGetAppointment)

	r.Post("/catalog", h.HandleCreateCatalogItem)
	r.Get("/catalog", h.HandleListCatalog)
}

// scopeFrom extracts the bound tenant scope or writes the refusal itself.
// The middleware guarantees a scope on every protected route, so a miss here
// means the handler was mounted outside the protected subtree.
func (h *Handler) scopeFrom(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	sc, ok := scope.FromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "protected handler reached without tenant scope",
			"path", r.URL.Path,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeTenantNotResolved, "no tenant scope bound to request"))
		return scope.Scope{}, false
	}
	return sc, true
}

// HandleRegister handles POST /register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.RegisterClinic(ctx, req.ToService())
	if err != nil {
		h.logger.ErrorContext(ctx, "clinic registration failed",
			"request_id", requestID,
			"clinic_name", req.ClinicName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "clinic registered",
		"request_id", requestID,
		"tenant_id", reg.Tenant.ID.String(),
		"plan", reg.Tenant.Plan,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(reg))
}

// HandleLogin handles POST /login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, user, err := h.service.Login(ctx, req.ParsedTenantID(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestID,
			"tenant_id", req.TenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// HandleGetProfile handles GET /profile requests.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleCreateDoctor handles POST /doctors requests.
func (h *Handler) HandleCreateDoctor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateDoctorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doctor, err := h.service.CreateDoctor(ctx, sc, req.ToService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doctor)
}

// HandleListDoctors handles GET /doctors requests.
func (h *Handler) HandleListDoctors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	doctors, err := h.service.ListDoctors(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DoctorListResponse{Doctors: doctors})
}

// HandleGetDoctor handles GET /doctors/{doctorID} requests.
func (h *Handler) HandleGetDoctor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	doctorID, err := id.ParseDoctorID(chi.URLParam(r, "doctorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doctor, err := h.service.GetDoctor(ctx, sc, doctorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doctor)
}

const defaultScheduleWindow = 7 * 24 * time.Hour

// HandleDoctorSchedule handles GET /doctors/{doctorID}/schedule requests.
// Optional from/to query parameters bound the window; it defaults to the
// next seven days.
func (h *Handler) HandleDoctorSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	doctorID, err := id.ParseDoctorID(chi.URLParam(r, "doctorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	from := requestcontext.Now(ctx)
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "from must be an RFC3339 timestamp"))
			return
		}
	}
	to := from.Add(defaultScheduleWindow)
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "to must be an RFC3339 timestamp"))
			return
		}
	}
	if !to.After(from) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "to must be after from"))
		return
	}

	appointments, err := h.service.ListDoctorSchedule(ctx, sc, doctorID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AppointmentListResponse{Appointments: appointments})
}

// HandleCreatePatient handles POST /patients requests.
func (h *Handler) HandleCreatePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreatePatientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	patient, err := h.service.CreatePatient(ctx, sc, req.ToService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, patient)
}

// HandleListPatients handles GET /patients requests.
func (h *Handler) HandleListPatients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	patients, err := h.service.ListPatients(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PatientListResponse{Patients: patients})
}

// HandleGetPatient handles GET /patients/{patientID} requests.
func (h *Handler) HandleGetPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	patientID, err := id.ParsePatientID(chi.URLParam(r, "patientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	patient, err := h.service.GetPatient(ctx, sc, patientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, patient)
}

// HandleCreateAppointment handles POST /appointments requests.
func (h *Handler) HandleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateAppointmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appointment, err := h.service.CreateAppointment(ctx, sc, req.ToService())
	if err != nil {
		h.logger.WarnContext(ctx, "appointment creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, appointment)
}

// HandleListAppointments handles GET /appointments requests.
func (h *Handler) HandleListAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	appointments, err := h.service.ListAppointments(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AppointmentListResponse{Appointments: appointments})
}

// HandleGetAppointment handles GET /appointments/{appointmentID} requests.
func (h *Handler) HandleGetAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointment, err := h.service.GetAppointment(ctx, sc, appointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appointment)
}

// HandleCreateCatalogItem handles POST /catalog requests.
func (h *Handler) HandleCreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateCatalogItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.CreateCatalogItem(ctx, sc, req.ToService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

// HandleListCatalog handles GET /catalog requests.
func (h *Handler) HandleListCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListCatalog(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CatalogListResponse{Items: items})
}
