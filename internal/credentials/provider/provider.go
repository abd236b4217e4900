// Package provider holds the credential resolution strategies. Exactly one
// chain is selected at startup from configuration, so the hot path never
// branches on environment flags.
package provider

import (
	"context"

	"carebridge/internal/credentials"
	"carebridge/internal/integrations"
)

// Provider matches credentials.Provider; re-declared here so the strategies
// can chain to each other without importing the service.
type Provider interface {
	Resolve(ctx context.Context, integration integrations.Integration) (*credentials.Config, error)
}
