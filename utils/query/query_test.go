package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// runWithQuery executes fn inside a fiber handler so it sees the given query
// string.
func runWithQuery(t *testing.T, rawQuery string, fn func(c *fiber.Ctx)) {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		fn(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?"+rawQuery, nil))
	require.NoError(t, err)
	resp.Body.Close()
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		page  int
		limit int
		skip  int64
	}{
		{"defaults", "", 1, 10, 0},
		{"explicit window", "page=3&limit=20", 3, 20, 40},
		{"zero page clamps to one", "page=0&limit=10", 1, 10, 0},
		{"negative page clamps to one", "page=-5", 1, 10, 0},
		{"non-numeric page", "page=abc", 1, 10, 0},
		{"zero limit clamps to one", "limit=0", 1, 1, 0},
		{"limit above cap clamps", "limit=500", 1, 100, 0},
		{"non-numeric limit", "limit=xyz", 1, 10, 0},
		{"skip follows page and limit", "page=5&limit=25", 5, 25, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runWithQuery(t, tt.query, func(c *fiber.Ctx) {
				p := ParsePagination(c)
				assert.Equal(t, tt.page, p.Page)
				assert.Equal(t, tt.limit, p.Limit)
				assert.Equal(t, tt.skip, p.Skip)
			})
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
		order int
	}{
		{"defaults to descending on default field", "", "createdAt", -1},
		{"asc literal sorts ascending", "sortBy=title&sortOrder=asc", "title", 1},
		{"desc literal sorts descending", "sortBy=title&sortOrder=desc", "title", -1},
		{"unknown order sorts descending", "sortBy=price&sortOrder=upward", "price", -1},
		{"order without field uses default field", "sortOrder=asc", "createdAt", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runWithQuery(t, tt.query, func(c *fiber.Ctx) {
				sort := ParseSort(c, "createdAt")
				require.Len(t, sort, 1)
				assert.Equal(t, tt.field, sort[0].Key)
				assert.Equal(t, tt.order, sort[0].Value)
			})
		})
	}
}

func TestSearchFilter(t *testing.T) {
	t.Run("empty search matches all", func(t *testing.T) {
		assert.Equal(t, bson.M{}, SearchFilter("", "username", "email"))
	})

	t.Run("no fields matches all", func(t *testing.T) {
		assert.Equal(t, bson.M{}, SearchFilter("golang"))
	})

	t.Run("builds case-insensitive disjunction", func(t *testing.T) {
		filter := SearchFilter("golang", "title", "description")

		or, ok := filter["$or"].(bson.A)
		require.True(t, ok)
		require.Len(t, or, 2)

		first, ok := or[0].(bson.M)
		require.True(t, ok)
		assert.Equal(t, bson.M{"$regex": "golang", "$options": "i"}, first["title"])

		second, ok := or[1].(bson.M)
		require.True(t, ok)
		assert.Equal(t, bson.M{"$regex": "golang", "$options": "i"}, second["description"])
	})
}

func TestFindOptions(t *testing.T) {
	p := Pagination{Page: 3, Limit: 20, Skip: 40}
	sort := bson.D{{Key: "createdAt", Value: -1}}

	opts := FindOptions(p, sort)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)
	assert.Equal(t, int64(20), *opts.Limit)
	assert.Equal(t, sort, opts.Sort)
}
