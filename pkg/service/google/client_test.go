package google_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/service/google"
)

type member struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// directoryServer serves members.list pages keyed by page token
type directoryServer struct {
	pages      map[string][]member
	nextTokens map[string]string
	fail       bool
	tokens     []string
}

func (s *directoryServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/members") || s.fail {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Resource Not Found: groupKey"}}`))
		return
	}

	token := r.URL.Query().Get("pageToken")
	s.tokens = append(s.tokens, token)

	resp := map[string]any{
		"kind":    "admin#directory#members",
		"members": s.pages[token],
	}
	if next := s.nextTokens[token]; next != "" {
		resp["nextPageToken"] = next
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newService(t *testing.T, handler http.Handler) google.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := google.NewWithHTTPClient(context.Background(), srv.Client(), google.WithEndpoint(srv.URL+"/"))
	gt.NoError(t, err).Required()
	return svc
}

func TestFetchMembers(t *testing.T) {
	t.Run("pages until token is absent and keeps only users", func(t *testing.T) {
		ds := &directoryServer{
			pages: map[string][]member{
				"": {
					{Email: "Alice@Example.com", Type: "USER"},
					{Email: "nested@example.com", Type: "GROUP"},
				},
				"p2": {
					{Email: "bob@example.com", Type: "USER"},
					{Email: "svc@example.com", Type: "CUSTOMER"},
				},
			},
			nextTokens: map[string]string{"": "p2"},
		}
		svc := newService(t, ds)

		members, err := svc.FetchMembers(context.Background(), "eng@example.com")
		gt.NoError(t, err).Required()

		gt.Value(t, ds.tokens).Equal([]string{"", "p2"})
		gt.Value(t, members.Sorted()).Equal([]model.Identity{"alice@example.com", "bob@example.com"})
	})

	t.Run("empty group", func(t *testing.T) {
		svc := newService(t, &directoryServer{})
		members, err := svc.FetchMembers(context.Background(), "empty@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, members.Len()).Equal(0)
	})

	t.Run("propagates transport errors", func(t *testing.T) {
		svc := newService(t, &directoryServer{fail: true})
		_, err := svc.FetchMembers(context.Background(), "missing@example.com")
		gt.Value(t, err).NotNil()
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("requires credentials", func(t *testing.T) {
		_, err := google.New(ctx, nil, "admin@example.com")
		gt.Value(t, err).NotNil()
	})

	t.Run("requires subject", func(t *testing.T) {
		_, err := google.New(ctx, []byte(`{"type":"service_account"}`), "")
		gt.Value(t, err).NotNil()
	})

	t.Run("rejects malformed credentials", func(t *testing.T) {
		_, err := google.New(ctx, []byte(`not json`), "admin@example.com")
		gt.Value(t, err).NotNil()
	})
}
