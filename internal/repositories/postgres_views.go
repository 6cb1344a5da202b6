package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/streamhub/backend/internal/models"
)

const videoSummaryColumns = `
    v.id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration_seconds,
    v.views, v.is_published, v.created_at,
    o.id, o.username, o.full_name, o.avatar_url`

func scanVideoSummary(row pgx.Row) (models.VideoSummary, error) {
	var v models.VideoSummary
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
		&v.Views, &v.IsPublished, &v.CreatedAt,
		&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL); err != nil {
		return models.VideoSummary{}, err
	}
	return v, nil
}

func collectVideoSummaries(rows pgx.Rows, op string) ([]models.VideoSummary, error) {
	defer rows.Close()

	videos := []models.VideoSummary{}
	for rows.Next() {
		v, err := scanVideoSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return videos, nil
}

// ChannelProfile resolves a channel by username and derives its subscription facts
// relative to viewerID (empty for anonymous) in one statement.
func (s *PostgresRelationStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
            EXISTS (
                SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2
            )
        FROM users u
        WHERE u.username = $1
    `, username, nullableID(viewerID))

	var p models.ChannelProfile
	if err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.AvatarURL, &p.CoverImageURL,
		&p.SubscribersCount, &p.ChannelSubscribedToCount, &p.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, classify("select channel profile", err)
	}

	return p, nil
}

// VideoDetail joins a video with its likes, its owner and the owner's subscribers.
func (s *PostgresRelationStore) VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.VideoDetail{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT v.id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration_seconds,
            v.views, v.is_published, v.created_at,
            (SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'video' AND l.target_id = v.id),
            EXISTS (
                SELECT 1 FROM likes l
                WHERE l.target_kind = 'video' AND l.target_id = v.id AND l.liked_by = $2
            ),
            o.id, o.username, o.full_name, o.avatar_url,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = o.id),
            EXISTS (
                SELECT 1 FROM subscriptions s WHERE s.channel_id = o.id AND s.subscriber_id = $2
            )
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.id = $1
    `, videoID, nullableID(viewerID))

	var d models.VideoDetail
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.VideoURL, &d.ThumbnailURL, &d.Duration,
		&d.Views, &d.IsPublished, &d.CreatedAt,
		&d.LikesCount, &d.IsLiked,
		&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.AvatarURL,
		&d.Owner.SubscribersCount, &d.Owner.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoDetail{}, ErrNotFound
		}
		return models.VideoDetail{}, classify("select video detail", err)
	}

	return d, nil
}

// LikedVideos lists videos liked by userID, newest like first. Likes whose video
// (or its owner) no longer exists fall out of the inner joins.
func (s *PostgresRelationStore) LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1 AND l.target_kind = 'video'
        ORDER BY l.created_at DESC, v.id
    `, userID)
	if err != nil {
		return nil, classify("query liked videos", err)
	}

	return collectVideoSummaries(rows, "liked videos")
}

// WatchHistory returns the user's watched videos in stored order.
func (s *PostgresRelationStore) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	batch.Queue(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	batch.Queue(`
        SELECT `+videoSummaryColumns+`
        FROM users u
        CROSS JOIN LATERAL unnest(u.watch_history) WITH ORDINALITY AS h(video_id, position)
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE u.id = $1
        ORDER BY h.position
    `, userID)

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	var exists bool
	if err := results.QueryRow().Scan(&exists); err != nil {
		return nil, classify("select watch history owner", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := results.Query()
	if err != nil {
		return nil, classify("query watch history", err)
	}

	return collectVideoSummaries(rows, "watch history")
}

// ChannelStats aggregates dashboard totals. The owned video set is materialized
// once and shared by the views sum and the likes count.
func (s *PostgresRelationStore) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        WITH owned AS MATERIALIZED (
            SELECT id, views FROM videos WHERE owner_id = $1
        )
        SELECT
            EXISTS (SELECT 1 FROM users WHERE id = $1),
            (SELECT COUNT(*) FROM owned),
            (SELECT COALESCE(SUM(views), 0)::BIGINT FROM owned),
            (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN owned ON owned.id = l.target_id WHERE l.target_kind = 'video')
    `, ownerID)

	var (
		exists bool
		stats  models.ChannelStats
	)
	if err := row.Scan(&exists, &stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes); err != nil {
		return models.ChannelStats{}, classify("select channel stats", err)
	}
	if !exists {
		return models.ChannelStats{}, ErrNotFound
	}

	return stats, nil
}

// ChannelVideos lists every video owned by ownerID, drafts included, newest first.
func (s *PostgresRelationStore) ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC, v.id
    `, ownerID)
	if err != nil {
		return nil, classify("query channel videos", err)
	}

	return collectVideoSummaries(rows, "channel videos")
}

// ChannelSubscribers lists the users subscribed to channelID, newest first.
func (s *PostgresRelationStore) ChannelSubscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error) {
	return s.listChannels(ctx, channelID, "channel subscribers", `
        SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC, u.id
    `)
}

// SubscribedChannels lists the channels subscriberID follows, newest first.
func (s *PostgresRelationStore) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	return s.listChannels(ctx, subscriberID, "subscribed channels", `
        SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC, u.id
    `)
}

func (s *PostgresRelationStore) listChannels(ctx context.Context, userID, op, query string) ([]models.ChannelSummary, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	batch.Queue(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	batch.Queue(query, userID)

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	var exists bool
	if err := results.QueryRow().Scan(&exists); err != nil {
		return nil, classify("select "+op+" owner", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := results.Query()
	if err != nil {
		return nil, classify("query "+op, err)
	}
	defer rows.Close()

	channels := []models.ChannelSummary{}
	for rows.Next() {
		var c models.ChannelSummary
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.AvatarURL, &c.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return channels, nil
}
