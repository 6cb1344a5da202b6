package social

import (
	"errors"
	"fmt"

	"github.com/streamhub/backend/internal/repositories"
)

var (
	// ErrInvalidReference indicates a malformed identifier or an unknown edge kind.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrNotFound indicates a well-formed reference to an entity that does not exist.
	ErrNotFound = repositories.ErrNotFound
	// ErrConflict indicates a write that violates a uniqueness invariant.
	ErrConflict = repositories.ErrConflict
	// ErrUnauthorized indicates the viewer may not act on the entity.
	ErrUnauthorized = errors.New("viewer not authorized")
	// ErrSelfSubscription indicates a channel tried to subscribe to itself.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
)

// storeError maps store sentinels that carry caller meaning onto this package's taxonomy.
func storeError(err error) error {
	if errors.Is(err, repositories.ErrInvalidID) {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return err
}
