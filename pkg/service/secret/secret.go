package secret

import (
	"context"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Service reads secret payloads by secret version resource name
type Service interface {
	Access(ctx context.Context, name string) ([]byte, error)
}

// ValidateName checks a secret version resource name: projects/<p>/secrets/<s>/versions/<v>
func ValidateName(name string) error {
	parts := strings.Split(name, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "secrets" || parts[4] != "versions" {
		return goerr.New("invalid secret version name", goerr.V("name", name))
	}
	for _, p := range []string{parts[1], parts[3], parts[5]} {
		if strings.TrimSpace(p) == "" {
			return goerr.New("invalid secret version name", goerr.V("name", name))
		}
	}
	return nil
}

// SecretManager is a Service backed by Google Secret Manager
type SecretManager struct {
	client *secretmanager.Client
}

// NewSecretManager creates a Secret Manager client with application default credentials
func NewSecretManager(ctx context.Context, opts ...option.ClientOption) (*SecretManager, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Secret Manager client")
	}
	return &SecretManager{client: client}, nil
}

func (x *SecretManager) Access(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	resp, err := x.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to access secret version", goerr.V("name", name))
	}
	if resp == nil || resp.Payload == nil || len(resp.Payload.Data) == 0 {
		return nil, goerr.New("secret payload is empty", goerr.V("name", name))
	}

	return resp.Payload.Data, nil
}

func (x *SecretManager) Close() error {
	if err := x.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Secret Manager client")
	}
	return nil
}
