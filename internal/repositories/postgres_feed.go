package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/streamhub/backend/internal/models"
)

var feedSortColumns = map[models.SortField]string{
	models.SortByCreatedAt: "v.created_at",
	models.SortByViews:     "v.views",
	models.SortByDuration:  "v.duration_seconds",
	models.SortByTitle:     "v.title",
}

// feedStatement holds the count and page queries for one feed request. Both share
// the match stage so totals and pages always agree.
type feedStatement struct {
	count string
	page  string
	args  []any
}

// buildFeedStatement composes match, sort, owner join and pagination in that order.
func buildFeedStatement(q models.FeedQuery) feedStatement {
	var (
		where = []string{"v.is_published"}
		args  []any
	)
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(v.title ILIKE $"+n+" OR v.description ILIKE $"+n+")")
	}
	if q.OwnerID != "" {
		args = append(args, q.OwnerID)
		where = append(where, "v.owner_id = $"+strconv.Itoa(len(args)))
	}
	match := strings.Join(where, " AND ")

	column, ok := feedSortColumns[q.SortField]
	if !ok {
		column = feedSortColumns[models.SortByCreatedAt]
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}

	limit := len(args) + 1
	offset := len(args) + 2

	count := `
        SELECT COUNT(*)
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE ` + match

	page := `
        WITH matched AS (
            SELECT v.* FROM videos v
            WHERE ` + match + `
        ), sorted AS (
            SELECT v.*, ROW_NUMBER() OVER (ORDER BY ` + column + ` ` + dir + `, v.id ` + dir + `) AS rank
            FROM matched v
        )
        SELECT ` + videoSummaryColumns + `
        FROM sorted v
        JOIN users o ON o.id = v.owner_id
        ORDER BY v.rank
        LIMIT $` + strconv.Itoa(limit) + ` OFFSET $` + strconv.Itoa(offset)

	return feedStatement{count: count, page: page, args: args}
}

// escapeLike neutralises LIKE metacharacters so the search term matches literally.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// ListPublished returns one page of published videos matching q together with the total.
func (s *PostgresRelationStore) ListPublished(ctx context.Context, q models.FeedQuery) (models.VideoPage, error) {
	stmt := buildFeedStatement(q)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	pageArgs := append(append([]any{}, stmt.args...), q.PageSize, q.Offset())

	batch := &pgx.Batch{}
	batch.Queue(stmt.count, stmt.args...)
	batch.Queue(stmt.page, pageArgs...)

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return models.VideoPage{}, classify("count feed", err)
	}

	rows, err := results.Query()
	if err != nil {
		return models.VideoPage{}, classify("query feed", err)
	}
	videos, err := collectVideoSummaries(rows, "feed")
	if err != nil {
		return models.VideoPage{}, err
	}

	return models.NewVideoPage(videos, q.Page, q.PageSize, total), nil
}
