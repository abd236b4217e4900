package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carebridge/internal/integrations"
)

// HealthChecker reports whether a backing resource is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CredentialsService is the slice of the credentials service the admin
// endpoints use. Raw credential material is written, never read back out.
type CredentialsService interface {
	SetIntegrationCredentials(ctx context.Context, integration integrations.Integration, serialized string) error
	GetIntegrationCredentials(ctx context.Context, integration integrations.Integration) (string, error)
}

// Handler is the thin HTTP layer: operational endpoints plus the credentials
// admin surface. Vendor-facing request/response shaping lives in the vendor
// clients, not here.
type Handler struct {
	logger      *slog.Logger
	credentials CredentialsService
	checkers    map[string]HealthChecker
}

func NewHandler(logger *slog.Logger, credentials CredentialsService, checkers map[string]HealthChecker) *Handler {
	return &Handler{logger: logger, credentials: credentials, checkers: checkers}
}

// NewRouter wires all endpoints. The integration routes run behind the
// request-context and audit middleware so every call leaves a trail.
func NewRouter(h *Handler, auditor Auditor) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/integration/{integrationID}", func(r chi.Router) {
		r.Use(RequestContext)
		r.Use(Audit(auditor))
		r.Put("/credentials", h.handleSetCredentials)
		r.Get("/credentials/status", h.handleCredentialsStatus)
	})
	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings each backing resource with a short deadline and reports
// 503 if any is unreachable.
func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checkers))
	for name, checker := range h.checkers {
		if err := checker.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "readiness check failed", "resource", name, "error", err)
			results[name] = "unreachable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

type setCredentialsRequest struct {
	Credentials string `json:"credentials"`
}

// handleSetCredentials stores a serialized credential payload for an
// integration. The payload is treated as opaque; validation belongs to the
// vendor client that consumes it.
func (h *Handler) handleSetCredentials(w http.ResponseWriter, r *http.Request) {
	integrationID := chi.URLParam(r, "integrationID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	var req setCredentialsRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Credentials == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "credentials payload required"})
		return
	}

	integration := integrations.Integration{ID: integrationID}
	if err := h.credentials.SetIntegrationCredentials(r.Context(), integration, req.Credentials); err != nil {
		h.logger.ErrorContext(r.Context(), "store integration credentials failed",
			"integration_id", integrationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store failed"})
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleCredentialsStatus reports whether credential material is currently
// cached, without exposing the material itself.
func (h *Handler) handleCredentialsStatus(w http.ResponseWriter, r *http.Request) {
	integrationID := chi.URLParam(r, "integrationID")

	cached, err := h.credentials.GetIntegrationCredentials(r.Context(), integrations.Integration{ID: integrationID})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "read integration credentials failed",
			"integration_id", integrationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "read failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cached": cached != ""})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
