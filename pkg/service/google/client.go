package google

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	googleoauth "golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"
)

const (
	// DefaultPageSize is the maximum page size accepted by members.list
	DefaultPageSize int64 = 200

	memberTypeUser = "USER"
)

// Scopes are the read-only Admin SDK scopes the service account must be granted via domain-wide delegation
var Scopes = []string{
	admin.AdminDirectoryGroupReadonlyScope,
	admin.AdminDirectoryUserReadonlyScope,
}

type client struct {
	svc      *admin.Service
	pageSize int64
}

type config struct {
	endpoint string
	pageSize int64
}

// Option is a functional option for client configuration
type Option func(*config)

// WithEndpoint overrides the Admin SDK base URL
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// WithPageSize sets members.list page size
func WithPageSize(size int64) Option {
	return func(c *config) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// New creates a Directory client from service account key JSON, impersonating subject
func New(ctx context.Context, credentialsJSON []byte, subject string, opts ...Option) (Service, error) {
	if len(credentialsJSON) == 0 {
		return nil, goerr.New("Google service account credentials are required")
	}
	if subject == "" {
		return nil, goerr.New("Google subject email is required for domain-wide delegation")
	}

	conf, err := googleoauth.JWTConfigFromJSON(credentialsJSON, Scopes...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Google service account credentials")
	}
	conf.Subject = subject

	return NewWithHTTPClient(ctx, conf.Client(ctx), opts...)
}

// NewWithHTTPClient creates a Directory client over an already authorized HTTP client
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...Option) (Service, error) {
	cfg := &config{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(cfg)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}

	svc, err := admin.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Admin SDK directory service")
	}

	return &client{
		svc:      svc,
		pageSize: cfg.pageSize,
	}, nil
}

// FetchMembers pages through members.list until no page token is returned
func (c *client) FetchMembers(ctx context.Context, groupKey string) (model.IdentitySet, error) {
	members := make(model.IdentitySet)
	var pageToken string

	for {
		call := c.svc.Members.List(groupKey).MaxResults(c.pageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list Google group members", goerr.V("group", groupKey))
		}

		for _, m := range resp.Members {
			if m.Type != memberTypeUser {
				continue
			}
			members.Add(model.NewIdentity(m.Email))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	logging.From(ctx).Info("Fetched Google group members", "group", groupKey, "count", members.Len())

	return members, nil
}
