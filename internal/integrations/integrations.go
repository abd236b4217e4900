package integrations

import "context"

// Integration identifies one configured vendor integration.
type Integration struct {
	// ID is opaque; it keys credential material and audit records.
	ID          string
	Environment string
}

// FlagStore answers whether auditing is enabled for an integration.
type FlagStore interface {
	AuditEnabled(ctx context.Context, integrationID string) (bool, error)
}

// ConfigFlagStore is a FlagStore driven by configuration: auditing defaults
// on, with an explicit per-integration disable list.
type ConfigFlagStore struct {
	disabled map[string]struct{}
}

func NewConfigFlagStore(disabledIDs []string) *ConfigFlagStore {
	disabled := make(map[string]struct{}, len(disabledIDs))
	for _, id := range disabledIDs {
		disabled[id] = struct{}{}
	}
	return &ConfigFlagStore{disabled: disabled}
}

func (s *ConfigFlagStore) AuditEnabled(_ context.Context, integrationID string) (bool, error) {
	_, off := s.disabled[integrationID]
	return !off, nil
}
