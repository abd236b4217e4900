package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/require"

	"carebridge/internal/credentials/provider"
	"carebridge/internal/integrations"
)

type fakeSecretsAPI struct {
	secretString *string
	err          error
	gotSecretID  string
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotSecretID = aws.ToString(params.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secretString}, nil
}

func TestSecretManagerInlineEntry(t *testing.T) {
	api := &fakeSecretsAPI{
		secretString: aws.String(`{"amigo":{"apiUrl":"https://api.amigo.example","token":"tok-1"}}`),
	}
	p := provider.NewSecretManager(api, "integrations/credentials")

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "https://api.amigo.example", cfg.APIURL)
	require.Equal(t, "tok-1", cfg.Token)
	require.Equal(t, "integrations/credentials", api.gotSecretID)
}

func TestSecretManagerNestedStringEntry(t *testing.T) {
	api := &fakeSecretsAPI{
		secretString: aws.String(`{"feegow":"{\"apiUrl\":\"https://api.feegow.example\",\"token\":\"tok-2\"}"}`),
	}
	p := provider.NewSecretManager(api, "integrations/credentials")

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "feegow"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "https://api.feegow.example", cfg.APIURL)
	require.Equal(t, "tok-2", cfg.Token)
}

func TestSecretManagerAbsentEntry(t *testing.T) {
	api := &fakeSecretsAPI{secretString: aws.String(`{"amigo":{"apiUrl":"x"}}`)}
	p := provider.NewSecretManager(api, "integrations/credentials")

	cfg, err := p.Resolve(context.Background(), integrations.Integration{ID: "unknown"})
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestSecretManagerTransportError(t *testing.T) {
	api := &fakeSecretsAPI{err: errors.New("access denied")}
	p := provider.NewSecretManager(api, "integrations/credentials")

	_, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.Error(t, err)
}

func TestSecretManagerUnparsableDocument(t *testing.T) {
	api := &fakeSecretsAPI{secretString: aws.String("not json")}
	p := provider.NewSecretManager(api, "integrations/credentials")

	_, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.Error(t, err)
}

func TestSecretManagerMissingStringPayload(t *testing.T) {
	api := &fakeSecretsAPI{}
	p := provider.NewSecretManager(api, "integrations/credentials")

	_, err := p.Resolve(context.Background(), integrations.Integration{ID: "amigo"})
	require.Error(t, err)
}
