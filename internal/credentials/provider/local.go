package provider

import (
	"context"

	"carebridge/internal/credentials"
	"carebridge/internal/integrations"
)

// FixedLocal serves a fixed configuration for one reserved integration id,
// with no external calls at all. Any other integration falls through to the
// next provider in the chain. This keeps offline development working without
// secrets.
type FixedLocal struct {
	reservedID string
	config     credentials.Config
	next       Provider
}

// NewFixedLocal constructs the local development head of a provider chain.
// next may be nil, in which case non-reserved integrations resolve to
// nothing.
func NewFixedLocal(reservedID string, config credentials.Config, next Provider) *FixedLocal {
	return &FixedLocal{reservedID: reservedID, config: config, next: next}
}

func (p *FixedLocal) Resolve(ctx context.Context, integration integrations.Integration) (*credentials.Config, error) {
	if integration.ID == p.reservedID {
		cfg := p.config
		return &cfg, nil
	}
	if p.next == nil {
		return nil, nil
	}
	return p.next.Resolve(ctx, integration)
}
