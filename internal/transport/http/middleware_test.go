package httptransport_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"carebridge/internal/audit"
	httptransport "carebridge/internal/transport/http"
	"carebridge/pkg/requestcontext"
)

func contextRouter(capture *map[string]string) http.Handler {
	r := chi.NewRouter()
	r.Route("/integration/{integrationID}", func(r chi.Router) {
		r.Use(httptransport.RequestContext)
		r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			*capture = map[string]string{
				"integration":  requestcontext.IntegrationID(ctx),
				"conversation": requestcontext.ConversationID(ctx),
				"subject":      requestcontext.SubjectID(ctx),
				"correlation":  requestcontext.CorrelationID(ctx),
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func TestRequestContextLiftsHeaders(t *testing.T) {
	var captured map[string]string
	router := contextRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/integration/amigo/ping", nil)
	req.Header.Set("X-Conversation-Id", "conv-1")
	req.Header.Set("X-Subject-Id", "+5511999990000")
	req.Header.Set("X-Correlation-Id", "corr-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "amigo", captured["integration"])
	require.Equal(t, "conv-1", captured["conversation"])
	require.Equal(t, "+5511999990000", captured["subject"])
	require.Equal(t, "corr-1", captured["correlation"])
	require.Equal(t, "corr-1", rec.Header().Get("X-Correlation-Id"))
}

func TestRequestContextGeneratesCorrelationID(t *testing.T) {
	var captured map[string]string
	router := contextRouter(&captured)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/integration/amigo/ping", nil))

	require.NotEmpty(t, captured["correlation"])
	require.Equal(t, captured["correlation"], rec.Header().Get("X-Correlation-Id"),
		"generated correlation id is echoed back to the caller")
}

func TestAuditMiddlewareRecordsStatus(t *testing.T) {
	auditor := &fakeAuditor{}

	r := chi.NewRouter()
	r.Route("/integration/{integrationID}", func(r chi.Router) {
		r.Use(httptransport.RequestContext)
		r.Use(httptransport.Audit(auditor))
		r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad", http.StatusBadGateway)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/integration/amigo/boom", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	records := auditor.Records()
	require.Len(t, records, 2)
	require.Equal(t, audit.DataTypeInternalRequest, records[0].DataType)
	require.Equal(t, "GET /integration/amigo/boom", records[0].Identifier)
	require.Equal(t, audit.DataTypeInternalResponse, records[1].DataType)
	require.Equal(t, map[string]any{"status": http.StatusBadGateway}, records[1].Data)
}
