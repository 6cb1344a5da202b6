package social

import (
	"fmt"

	"github.com/google/uuid"
)

// Viewer is the identity a read or toggle is evaluated for. Anonymous is the zero value.
type Viewer string

// Anonymous is the viewer of unauthenticated requests.
const Anonymous Viewer = ""

// IsAnonymous reports whether no identity is attached.
func (v Viewer) IsAnonymous() bool { return v == Anonymous }

// ID returns the user id of the viewer, empty when anonymous.
func (v Viewer) ID() string { return string(v) }

// ParseID validates raw as an entity id and returns its canonical form.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}
	return id.String(), nil
}

// ParseViewer validates a concrete viewer id. An empty string yields Anonymous.
func ParseViewer(raw string) (Viewer, error) {
	if raw == "" {
		return Anonymous, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return Anonymous, err
	}
	return Viewer(id), nil
}
