package http

import (
	"net/http"

	"facility-booking/internal/delivery/http/handler"
	"facility-booking/internal/delivery/http/middleware"
	"facility-booking/internal/domain/entity"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	bookingHandler     *handler.BookingHandler
	consentHandler     *handler.ConsentHandler
	approvalHandler    *handler.ApprovalHandler
	serviceItemHandler *handler.ServiceItemHandler
	patientHandler     *handler.PatientHandler
	auditLogHandler    *handler.AuditLogHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	otpLimiter         *middleware.RateLimiter
	accessLog          mux.MiddlewareFunc
	metricsHandler     http.Handler
}

type RouterDeps struct {
	AuthHandler        *handler.AuthHandler
	BookingHandler     *handler.BookingHandler
	ConsentHandler     *handler.ConsentHandler
	ApprovalHandler    *handler.ApprovalHandler
	ServiceItemHandler *handler.ServiceItemHandler
	PatientHandler     *handler.PatientHandler
	AuditLogHandler    *handler.AuditLogHandler
	AuthMiddleware     *middleware.AuthMiddleware
	CORSMiddleware     *middleware.CORSMiddleware
	OTPLimiter         *middleware.RateLimiter
	AccessLog          func(http.Handler) http.Handler
	MetricsHandler     http.Handler
}

func NewRouter(deps RouterDeps) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        deps.AuthHandler,
		bookingHandler:     deps.BookingHandler,
		consentHandler:     deps.ConsentHandler,
		approvalHandler:    deps.ApprovalHandler,
		serviceItemHandler: deps.ServiceItemHandler,
		patientHandler:     deps.PatientHandler,
		auditLogHandler:    deps.AuditLogHandler,
		authMiddleware:     deps.AuthMiddleware,
		corsMiddleware:     deps.CORSMiddleware,
		otpLimiter:         deps.OTPLimiter,
		accessLog:          deps.AccessLog,
		metricsHandler:     deps.MetricsHandler,
	}
}

// Setup registers every route and returns the server handler.
func (r *Router) Setup() http.Handler {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Everything below requires a valid access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	handle := func(path string, h http.HandlerFunc, method string, perms ...entity.Permission) {
		protected.Handle(path, middleware.RequirePermission(perms...)(h)).Methods(method)
	}
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if r.otpLimiter == nil {
			return h
		}
		return r.otpLimiter.Limit(h).ServeHTTP
	}

	// Booking lifecycle
	handle("/booking/create", r.bookingHandler.CreateBooking, http.MethodPost, entity.PermBookingCreate)
	handle("/booking/verify/consent", limited(r.consentHandler.VerifyConsent), http.MethodPost, entity.PermBookingConsent)
	handle("/booking/request/consent", limited(r.consentHandler.RequestConsentOTP), http.MethodPost, entity.PermBookingConsent)
	handle("/request_override", limited(r.consentHandler.RequestOverride), http.MethodPost, entity.PermBookingOverrideRequest)
	handle("/validate_override", limited(r.consentHandler.ValidateOverride), http.MethodPut, entity.PermBookingOverrideValidate)
	handle("/booking/approval", r.approvalHandler.SetApproval, http.MethodPost, entity.PermBookingApprove)
	handle("/booking/number/{booking_number}", r.bookingHandler.GetBookingByNumber, http.MethodGet, entity.PermBookingView)
	handle("/booking/{id}/finance", r.approvalHandler.SetFinanceDecision, http.MethodPut, entity.PermBookingFinanceApprove)
	handle("/booking/{id}", r.bookingHandler.GetBooking, http.MethodGet, entity.PermBookingView)
	handle("/bookings", r.bookingHandler.ListBookings, http.MethodGet, entity.PermBookingView)

	// Catalog and patient directory
	handle("/services", r.serviceItemHandler.Create, http.MethodPost, entity.PermCatalogManage)
	handle("/services", r.serviceItemHandler.GetAll, http.MethodGet, entity.PermBookingView, entity.PermCatalogManage)
	handle("/services/{id}", r.serviceItemHandler.GetByID, http.MethodGet, entity.PermBookingView, entity.PermCatalogManage)
	handle("/patients", r.patientHandler.CreatePatient, http.MethodPost, entity.PermPatientManage)
	handle("/patients/{id}", r.patientHandler.GetPatient, http.MethodGet, entity.PermBookingView, entity.PermPatientManage)

	// Administration
	handle("/users", r.authHandler.CreateUser, http.MethodPost, entity.PermUserManage)
	handle("/audit-logs", r.auditLogHandler.ListAuditLogs, http.MethodGet, entity.PermAuditView)
	handle("/audit-logs/{id}", r.auditLogHandler.GetAuditLog, http.MethodGet, entity.PermAuditView)

	if r.accessLog != nil {
		r.router.Use(r.accessLog)
	}

	if r.corsMiddleware == nil {
		return r.router
	}
	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
