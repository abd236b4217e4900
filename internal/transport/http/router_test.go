package httptransport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"carebridge/internal/audit"
	"carebridge/internal/integrations"
	httptransport "carebridge/internal/transport/http"
	"carebridge/pkg/testutil"
)

type fakeCredentials struct {
	mu     sync.Mutex
	stored map[string]string
	err    error
}

func (f *fakeCredentials) SetIntegrationCredentials(_ context.Context, integration integrations.Integration, serialized string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		f.stored = make(map[string]string)
	}
	f.stored[integration.ID] = serialized
	return nil
}

func (f *fakeCredentials) GetIntegrationCredentials(_ context.Context, integration integrations.Integration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[integration.ID], nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	records []audit.Record
}

func (f *fakeAuditor) SendAuditEvent(_ context.Context, record audit.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func (f *fakeAuditor) Records() []audit.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audit.Record{}, f.records...)
}

type failingChecker struct{}

func (failingChecker) Health(context.Context) error { return errors.New("unreachable") }

type okChecker struct{}

func (okChecker) Health(context.Context) error { return nil }

type RouterSuite struct {
	suite.Suite
	credentials *fakeCredentials
	auditor     *fakeAuditor
	checkers    map[string]httptransport.HealthChecker
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.credentials = &fakeCredentials{}
	s.auditor = &fakeAuditor{}
	s.checkers = map[string]httptransport.HealthChecker{"redis": okChecker{}}
}

func (s *RouterSuite) router() http.Handler {
	handler := httptransport.NewHandler(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		s.credentials,
		s.checkers,
	)
	return httptransport.NewRouter(handler, s.auditor)
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router(), req)
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *RouterSuite) TestReadyzAllHealthy() {
	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/readyz"))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"redis":"ok"}`, rec.Body.String())
}

func (s *RouterSuite) TestReadyzFailingResource() {
	s.checkers["postgres"] = failingChecker{}

	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/readyz"))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"redis":"ok","postgres":"unreachable"}`, rec.Body.String())
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "go_goroutines")
}

func (s *RouterSuite) TestSetCredentials() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/integration/amigo/credentials",
		`{"credentials":"{\"apiUrl\":\"https://api.amigo.example\"}"}`)
	rec := s.do(req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal(`{"apiUrl":"https://api.amigo.example"}`, s.credentials.stored["amigo"])
}

func (s *RouterSuite) TestSetCredentialsEmptyPayload() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/integration/amigo/credentials", `{}`)
	rec := s.do(req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestSetCredentialsStoreFailure() {
	s.credentials.err = errors.New("redis down")

	req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/integration/amigo/credentials",
		`{"credentials":"x"}`)
	rec := s.do(req)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *RouterSuite) TestCredentialsStatus() {
	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/integration/amigo/credentials/status"))
	s.Equal(http.StatusOK, rec.Code)
	body := testutil.UnmarshalResponse[map[string]bool](s.T(), rec)
	s.False((*body)["cached"])

	s.credentials.stored = map[string]string{"amigo": "material"}
	rec = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/integration/amigo/credentials/status"))
	s.Equal(http.StatusOK, rec.Code)
	body = testutil.UnmarshalResponse[map[string]bool](s.T(), rec)
	s.True((*body)["cached"])
}

func (s *RouterSuite) TestIntegrationRoutesLeaveAuditTrail() {
	rec := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/integration/amigo/credentials/status"))
	s.Equal(http.StatusOK, rec.Code)

	records := s.auditor.Records()
	s.Require().Len(records, 2)
	s.Equal(audit.DataTypeInternalRequest, records[0].DataType)
	s.Equal("amigo", records[0].IntegrationID)
	s.Equal(audit.DataTypeInternalResponse, records[1].DataType)
	s.Equal(map[string]any{"status": http.StatusOK}, records[1].Data)
}
