package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/models"
)

// ToggleState reports which way a toggle flipped the edge.
type ToggleState string

const (
	StateAdded   ToggleState = "added"
	StateRemoved ToggleState = "removed"
)

// ToggleResult is returned by every toggle.
type ToggleResult struct {
	State ToggleState `json:"state"`
}

// Toggler flips the presence of an edge. It performs exactly one write on the
// happy path and never maintains counters; counts are derived on read.
type Toggler struct {
	edges EdgeStore
	now   func() time.Time
}

// NewToggler constructs a Toggler over the provided edge store.
func NewToggler(edges EdgeStore) *Toggler {
	return &Toggler{edges: edges, now: func() time.Time { return time.Now().UTC() }}
}

// Toggle deletes the edge (kind, subjectID, targetID) when present and inserts it
// when absent. An insert that loses a race on the unique key means the edge
// already exists, so it is deleted and reported as removed.
func (t *Toggler) Toggle(ctx context.Context, kind models.EdgeKind, subjectID, targetID string) (ToggleResult, error) {
	if !kind.Valid() {
		return ToggleResult{}, fmt.Errorf("%w: unknown edge kind %q", ErrInvalidReference, kind)
	}
	subject, err := ParseID(subjectID)
	if err != nil {
		return ToggleResult{}, err
	}
	target, err := ParseID(targetID)
	if err != nil {
		return ToggleResult{}, err
	}

	key := models.EdgeKey{Kind: kind, SubjectID: subject, TargetID: target}
	logger := logging.FromContext(ctx).With(
		slog.String("edge_kind", string(kind)),
		slog.String("subject_id", subject),
		slog.String("target_id", target),
	)

	exists, err := t.edges.EdgeExists(ctx, key)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("lookup edge: %w", storeError(err))
	}

	if exists {
		return t.remove(ctx, key, logger, false)
	}

	err = t.edges.InsertEdge(ctx, key, t.now())
	switch {
	case err == nil:
		metrics.IncToggle(string(kind), string(StateAdded))
		logger.Debug("edge added")
		return ToggleResult{State: StateAdded}, nil
	case errors.Is(err, ErrConflict):
		metrics.IncToggleConflict(string(kind))
		logger.Info("edge inserted concurrently, removing")
		return t.remove(ctx, key, logger, true)
	default:
		return ToggleResult{}, fmt.Errorf("insert edge: %w", storeError(err))
	}
}

// remove deletes key. After a conflicting insert nothing deleted means the
// conflicting row is not key itself (a like of another kind on the same target,
// or a racing toggle), so the caller gets ErrConflict instead of a false removal.
func (t *Toggler) remove(ctx context.Context, key models.EdgeKey, logger *slog.Logger, afterConflict bool) (ToggleResult, error) {
	deleted, err := t.edges.DeleteEdge(ctx, key)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("delete edge: %w", storeError(err))
	}
	if !deleted {
		if afterConflict {
			logger.Warn("conflicting edge could not be removed")
			return ToggleResult{}, fmt.Errorf("%w: edge %s is held by another row", ErrConflict, key.Kind)
		}
		logger.Info("edge already removed concurrently")
	}
	metrics.IncToggle(string(key.Kind), string(StateRemoved))
	logger.Debug("edge removed")
	return ToggleResult{State: StateRemoved}, nil
}

// Guard is the caller-side policy in front of a Toggler. It requires a concrete
// viewer, checks that the target exists and rejects self-subscription unless
// configured otherwise.
type Guard struct {
	toggler            *Toggler
	targets            TargetResolver
	allowSelfSubscribe bool
}

// NewGuard wraps toggler with existence and self-subscription checks.
func NewGuard(toggler *Toggler, targets TargetResolver, allowSelfSubscribe bool) *Guard {
	return &Guard{toggler: toggler, targets: targets, allowSelfSubscribe: allowSelfSubscribe}
}

// Toggle flips the edge from viewer to targetID after applying the policy checks.
func (g *Guard) Toggle(ctx context.Context, kind models.EdgeKind, viewer Viewer, targetID string) (ToggleResult, error) {
	if viewer.IsAnonymous() {
		return ToggleResult{}, ErrUnauthorized
	}
	if !kind.Valid() {
		return ToggleResult{}, fmt.Errorf("%w: unknown edge kind %q", ErrInvalidReference, kind)
	}
	target, err := ParseID(targetID)
	if err != nil {
		return ToggleResult{}, err
	}

	if kind == models.EdgeSubscription && !g.allowSelfSubscribe && target == viewer.ID() {
		return ToggleResult{}, ErrSelfSubscription
	}

	exists, err := g.targets.TargetExists(ctx, kind, target)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("lookup target: %w", storeError(err))
	}
	if !exists {
		return ToggleResult{}, fmt.Errorf("%s %s: %w", kind, target, ErrNotFound)
	}

	return g.toggler.Toggle(ctx, kind, viewer.ID(), target)
}
