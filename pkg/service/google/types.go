package google

import (
	"context"

	"github.com/secmon-lab/aligner/pkg/domain/model"
)

// Service is the Directory Source: members of Google Workspace groups
type Service interface {
	// FetchMembers returns the normalized emails of the direct USER members of a group.
	// Nested groups are not expanded.
	FetchMembers(ctx context.Context, groupKey string) (model.IdentitySet, error)
}
