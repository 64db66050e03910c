package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/service/google"
	"github.com/secmon-lab/aligner/pkg/service/secret"
	"github.com/urfave/cli/v3"
)

// Google holds the service account used to read the Admin Directory API
type Google struct {
	serviceAccountFile   string
	serviceAccountSecret string
	subjectEmail         string
}

func (x *Google) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "google-service-account-file",
			Usage:       "Path to the service account key JSON with domain-wide delegation",
			Category:    "Google",
			Destination: &x.serviceAccountFile,
			Sources:     cli.EnvVars("ALIGNER_GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_SERVICE_ACCOUNT_FILE"),
		},
		&cli.StringFlag{
			Name:        "google-service-account-secret",
			Usage:       "Secret Manager version holding the service account key JSON (projects/*/secrets/*/versions/*)",
			Category:    "Google",
			Destination: &x.serviceAccountSecret,
			Sources:     cli.EnvVars("ALIGNER_GOOGLE_SERVICE_ACCOUNT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "google-subject-email",
			Usage:       "Workspace admin user impersonated by the service account",
			Category:    "Google",
			Destination: &x.subjectEmail,
			Sources:     cli.EnvVars("ALIGNER_GOOGLE_SUBJECT_EMAIL", "GOOGLE_SUBJECT_EMAIL"),
		},
	}
}

func (x Google) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("service-account-file", x.serviceAccountFile),
		slog.String("service-account-secret", x.serviceAccountSecret),
		slog.String("subject-email", x.subjectEmail),
	)
}

// Validate checks that credentials are present. Nothing is read here.
func (x *Google) Validate() error {
	if x.serviceAccountFile == "" && x.serviceAccountSecret == "" {
		return goerr.Wrap(ErrMissingCredentials, "set --google-service-account-file or --google-service-account-secret")
	}
	if x.subjectEmail == "" {
		return goerr.Wrap(ErrMissingCredentials, "--google-subject-email is required")
	}
	if x.serviceAccountFile == "" {
		if err := secret.ValidateName(x.serviceAccountSecret); err != nil {
			return goerr.Wrap(err, "invalid --google-service-account-secret")
		}
	}
	return nil
}

// UsesSecret reports whether the key must be read from Secret Manager
func (x *Google) UsesSecret() bool {
	return x.serviceAccountFile == "" && x.serviceAccountSecret != ""
}

// Configure creates the Directory Source. secrets may be nil unless UsesSecret is true.
func (x *Google) Configure(ctx context.Context, secrets secret.Service) (google.Service, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	var key []byte
	if x.UsesSecret() {
		if secrets == nil {
			return nil, goerr.New("secret service is required to read the service account key")
		}
		data, err := secrets.Access(ctx, x.serviceAccountSecret)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read service account key from Secret Manager")
		}
		key = data
	} else {
		// #nosec G304 - path is provided by CLI argument
		data, err := os.ReadFile(x.serviceAccountFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read service account file", goerr.V(ConfigPathKey, x.serviceAccountFile))
		}
		key = data
	}

	svc, err := google.New(ctx, key, x.subjectEmail)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Google Directory client")
	}
	return svc, nil
}
