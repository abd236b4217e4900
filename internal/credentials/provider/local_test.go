package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"carebridge/internal/credentials"
	"carebridge/internal/credentials/provider"
	"carebridge/internal/integrations"
)

type recordingProvider struct {
	calls  int
	result *credentials.Config
	err    error
}

func (p *recordingProvider) Resolve(_ context.Context, _ integrations.Integration) (*credentials.Config, error) {
	p.calls++
	return p.result, p.err
}

func TestFixedLocalServesReservedID(t *testing.T) {
	next := &recordingProvider{}
	fixed := credentials.Config{APIURL: "http://localhost:3000", Token: "local"}
	p := provider.NewFixedLocal("local", fixed, next)

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "local"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "http://localhost:3000", cfg.APIURL)
	require.Equal(t, "local", cfg.Token)
	require.Zero(t, next.calls, "reserved id never reaches the chain")
}

func TestFixedLocalReturnsCopy(t *testing.T) {
	fixed := credentials.Config{APIURL: "http://localhost:3000"}
	p := provider.NewFixedLocal("local", fixed, nil)

	first, err := p.Resolve(context.Background(), integrations.Integration{ID: "local"})
	require.NoError(t, err)
	first.Token = "mutated"

	second, err := p.Resolve(context.Background(), integrations.Integration{ID: "local"})
	require.NoError(t, err)
	require.Empty(t, second.Token)
}

func TestFixedLocalDelegatesOtherIDs(t *testing.T) {
	next := &recordingProvider{result: &credentials.Config{APIURL: "https://api.amigo.example"}}
	p := provider.NewFixedLocal("local", credentials.Config{}, next)

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.Equal(t, "https://api.amigo.example", cfg.APIURL)
	require.Equal(t, 1, next.calls)
}

func TestFixedLocalWithoutNextResolvesNothing(t *testing.T) {
	p := provider.NewFixedLocal("local", credentials.Config{}, nil)

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.Nil(t, cfg)
}
