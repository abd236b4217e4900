package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"carebridge/internal/credentials"
	"carebridge/internal/integrations"
)

// SecretsAPI is the slice of the Secrets Manager client this provider uses.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretManager is the production provider: one secret document holds a
// per-integration-id map of credential payloads. An absent entry resolves to
// nothing (the service reports it); a transport failure is an error the
// service logs and treats as missing.
type SecretManager struct {
	client     SecretsAPI
	secretName string
}

func NewSecretManager(client SecretsAPI, secretName string) *SecretManager {
	return &SecretManager{client: client, secretName: secretName}
}

func (p *SecretManager) Resolve(ctx context.Context, integration integrations.Integration) (*credentials.Config, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &p.secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch secret %q: %w", p.secretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %q has no string payload", p.secretName)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*out.SecretString), &document); err != nil {
		return nil, fmt.Errorf("parse secret %q: %w", p.secretName, err)
	}

	raw, ok := document[integration.ID]
	if !ok {
		return nil, nil
	}
	return parseEntry(raw)
}

// parseEntry accepts both document shapes: an inline credential object, or a
// credential object serialized again as a JSON string.
func parseEntry(raw json.RawMessage) (*credentials.Config, error) {
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		raw = json.RawMessage(nested)
	}
	var cfg credentials.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse credential entry: %w", err)
	}
	return &cfg, nil
}
