package config

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/service/secret"
	"github.com/secmon-lab/aligner/pkg/utils/safe"
)

// secretUser is a credential config that may read from Secret Manager
type secretUser interface {
	UsesSecret() bool
}

// ConfigureSecrets creates a Secret Manager client only if one of users needs it.
// The returned closer is never nil.
func ConfigureSecrets(ctx context.Context, users ...secretUser) (secret.Service, func(), error) {
	needed := false
	for _, u := range users {
		if u.UsesSecret() {
			needed = true
			break
		}
	}
	if !needed {
		return nil, func() {}, nil
	}

	sm, err := secret.NewSecretManager(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure Secret Manager")
	}
	return sm, func() { safe.Close(ctx, sm) }, nil
}

func trimSecret(data []byte) string {
	return strings.TrimSpace(string(data))
}
