package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamhub/backend/internal/models"
)

func TestBuildFeedStatementStageOrder(t *testing.T) {
	stmt := buildFeedStatement(models.FeedQuery{
		Search:    "go",
		OwnerID:   "owner-1",
		SortField: models.SortByViews,
		Ascending: true,
		Page:      2,
		PageSize:  10,
	})

	match := strings.Index(stmt.page, "WHERE")
	sort := strings.Index(stmt.page, "ORDER BY v.views ASC, v.id ASC")
	join := strings.Index(stmt.page, "JOIN users o")
	limit := strings.Index(stmt.page, "LIMIT $3 OFFSET $4")

	assert.True(t, match >= 0 && sort > match && join > sort && limit > join, "stages out of order:\n%s", stmt.page)
	assert.Contains(t, stmt.page, "v.is_published")
	assert.Contains(t, stmt.page, "(v.title ILIKE $1 OR v.description ILIKE $1)")
	assert.Contains(t, stmt.page, "v.owner_id = $2")
	assert.Contains(t, stmt.count, "v.is_published")
	assert.Equal(t, []any{"%go%", "owner-1"}, stmt.args)
}

func TestBuildFeedStatementDefaults(t *testing.T) {
	stmt := buildFeedStatement(models.FeedQuery{SortField: "password_hash; DROP TABLE users", Page: 1, PageSize: 10})

	assert.Contains(t, stmt.page, "ORDER BY v.created_at DESC, v.id DESC")
	assert.Contains(t, stmt.page, "LIMIT $1 OFFSET $2")
	assert.NotContains(t, stmt.page, "ILIKE")
	assert.NotContains(t, stmt.page, "DROP")
	assert.Empty(t, stmt.args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_done\\`, escapeLike(`100% _done\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
