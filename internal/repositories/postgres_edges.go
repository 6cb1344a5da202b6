package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/streamhub/backend/internal/db"
	"github.com/streamhub/backend/internal/models"
)

// PostgresRelationStore serves the social graph: edges, derived views, the feed
// and engagement counters. Every read is a single statement or a single batch.
type PostgresRelationStore struct {
	pool db.Pool
}

// NewPostgresRelationStore constructs a relation store backed by PostgreSQL.
func NewPostgresRelationStore(pool db.Pool) *PostgresRelationStore {
	return &PostgresRelationStore{pool: pool}
}

// EdgeExists reports whether the edge identified by key is present.
func (s *PostgresRelationStore) EdgeExists(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if key.Kind == models.EdgeSubscription {
		err = conn.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
            )
        `, key.SubjectID, key.TargetID).Scan(&exists)
	} else {
		target, ok := key.Kind.LikeTarget()
		if !ok {
			return false, fmt.Errorf("lookup edge: unknown kind %q", key.Kind)
		}
		err = conn.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM likes WHERE liked_by = $1 AND target_id = $2 AND target_kind = $3
            )
        `, key.SubjectID, key.TargetID, string(target)).Scan(&exists)
	}
	if err != nil {
		return false, classify("lookup edge", err)
	}

	return exists, nil
}

// InsertEdge creates the edge. A concurrent insert of the same key yields ErrConflict.
func (s *PostgresRelationStore) InsertEdge(ctx context.Context, key models.EdgeKey, at time.Time) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if key.Kind == models.EdgeSubscription {
		_, err = conn.Exec(ctx, `
            INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3)
        `, key.SubjectID, key.TargetID, at)
	} else {
		target, ok := key.Kind.LikeTarget()
		if !ok {
			return fmt.Errorf("insert edge: unknown kind %q", key.Kind)
		}
		_, err = conn.Exec(ctx, `
            INSERT INTO likes (liked_by, target_id, target_kind, created_at)
            VALUES ($1, $2, $3, $4)
        `, key.SubjectID, key.TargetID, string(target), at)
	}
	if err != nil {
		return classify("insert edge", err)
	}

	return nil
}

// DeleteEdge removes the edge and reports whether a row was deleted.
func (s *PostgresRelationStore) DeleteEdge(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var rows int64
	if key.Kind == models.EdgeSubscription {
		tag, execErr := conn.Exec(ctx, `
            DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
        `, key.SubjectID, key.TargetID)
		err, rows = execErr, tag.RowsAffected()
	} else {
		target, ok := key.Kind.LikeTarget()
		if !ok {
			return false, fmt.Errorf("delete edge: unknown kind %q", key.Kind)
		}
		tag, execErr := conn.Exec(ctx, `
            DELETE FROM likes WHERE liked_by = $1 AND target_id = $2 AND target_kind = $3
        `, key.SubjectID, key.TargetID, string(target))
		err, rows = execErr, tag.RowsAffected()
	}
	if err != nil {
		return false, classify("delete edge", err)
	}

	return rows > 0, nil
}

// TargetExists reports whether the entity an edge of kind would point at exists.
func (s *PostgresRelationStore) TargetExists(ctx context.Context, kind models.EdgeKind, id string) (bool, error) {
	var table string
	switch kind {
	case models.EdgeSubscription:
		table = "users"
	case models.EdgeLikeVideo:
		table = "videos"
	case models.EdgeLikeComment:
		table = "comments"
	case models.EdgeLikeTweet:
		table = "tweets"
	default:
		return false, fmt.Errorf("lookup target: unknown kind %q", kind)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, classify("lookup target", err)
	}

	return exists, nil
}
