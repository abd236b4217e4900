package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"carebridge/internal/credentials/provider"
	"carebridge/internal/integrations"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDebugTokenExchangeSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"apiUrl":"https://api.amigo.example","token":"exchanged"}`))
	}))
	defer server.Close()

	p := provider.NewDebugTokenExchange(server.URL, "debug-token", discard())
	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "https://api.amigo.example", cfg.APIURL)
	require.Equal(t, "exchanged", cfg.Token)

	require.Equal(t, "/integration/amigo/token-management/getAccessTokenData", gotPath)
	require.Equal(t, map[string]string{"token": "debug-token"}, gotBody)
}

func TestDebugTokenExchangeRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	p := provider.NewDebugTokenExchange(server.URL, "bad-token", discard())
	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestDebugTokenExchangeUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	p := provider.NewDebugTokenExchange(server.URL, "debug-token", discard())
	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestDebugTokenExchangeTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	p := provider.NewDebugTokenExchange(server.URL, "debug-token", discard())
	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err, "exchange failures resolve to nothing rather than erroring")
	require.Nil(t, cfg)
}
