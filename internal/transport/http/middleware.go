package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carebridge/internal/audit"
	"carebridge/pkg/requestcontext"
)

// Auditor is the dispatch-path slice of the audit service the middleware
// uses.
type Auditor interface {
	SendAuditEvent(ctx context.Context, record audit.Record)
}

// RequestContext lifts request-scoped identifiers out of the route and
// headers into the context, generating a correlation id when the caller did
// not send one.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if id := chi.URLParam(r, "integrationID"); id != "" {
			ctx = requestcontext.WithIntegrationID(ctx, id)
		}
		if id := r.Header.Get("X-Conversation-Id"); id != "" {
			ctx = requestcontext.WithConversationID(ctx, id)
		}
		if id := r.Header.Get("X-Subject-Id"); id != "" {
			ctx = requestcontext.WithSubjectID(ctx, id)
		}
		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx = requestcontext.WithCorrelationID(ctx, correlationID)

		w.Header().Set("X-Correlation-Id", correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for the audit trail.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Audit records an internal request/response pair for every call it wraps.
// The audit service swallows its own failures, so this middleware can never
// break the request path.
func Audit(auditor Auditor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			integrationID := requestcontext.IntegrationID(ctx)

			auditor.SendAuditEvent(ctx, audit.Record{
				IntegrationID: integrationID,
				DataType:      audit.DataTypeInternalRequest,
				Identifier:    r.Method + " " + r.URL.Path,
				Data: map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
					"query":  r.URL.RawQuery,
				},
			})

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			auditor.SendAuditEvent(ctx, audit.Record{
				IntegrationID: integrationID,
				DataType:      audit.DataTypeInternalResponse,
				Identifier:    r.Method + " " + r.URL.Path,
				Data: map[string]any{
					"status": recorder.status,
				},
			})
		})
	}
}
