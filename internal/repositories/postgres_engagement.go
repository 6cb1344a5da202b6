package repositories

import (
	"context"
	"fmt"
)

// IncrementViews bumps the view counter by one without reading the row first.
func (s *PostgresRelationStore) IncrementViews(ctx context.Context, videoID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID)
	if err != nil {
		return classify("increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddToWatchHistory appends videoID to the user's history unless it is already present.
// Existing entries keep their position.
func (s *PostgresRelationStore) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        WITH appended AS (
            UPDATE users
            SET watch_history = array_append(watch_history, $2::UUID)
            WHERE id = $1 AND NOT ($2::UUID = ANY(watch_history))
            RETURNING id
        )
        SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
    `, userID, videoID).Scan(&exists)
	if err != nil {
		return classify("append watch history", err)
	}
	if !exists {
		return ErrNotFound
	}

	return nil
}
