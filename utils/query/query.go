// Package query normalizes raw, untrusted list-endpoint query parameters
// (page, limit, search, sortBy, sortOrder) into bounded values and MongoDB
// filter/option structures.
package query

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a normalized page window. Skip is always (Page-1)*Limit.
type Pagination struct {
	Page  int
	Limit int
	Skip  int64
}

// ParsePagination reads page/limit from the query string. Non-numeric or
// out-of-range input silently falls back to the defaults; it never fails.
func ParsePagination(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Pagination{
		Page:  page,
		Limit: limit,
		Skip:  int64(page-1) * int64(limit),
	}
}

// ParseSort reads sortBy/sortOrder from the query string. sortBy defaults to
// the caller-supplied field and is not checked against the schema; sortOrder
// is ascending only for the literal "asc" and descending otherwise.
func ParseSort(c *fiber.Ctx, defaultField string) bson.D {
	sortBy := c.Query("sortBy")
	if sortBy == "" {
		sortBy = defaultField
	}

	order := -1
	if c.Query("sortOrder") == "asc" {
		order = 1
	}

	return bson.D{{Key: sortBy, Value: order}}
}

// ParseSearch builds a disjunctive case-insensitive substring filter over the
// candidate fields from the "search" query parameter. With no search term or
// no fields it returns an empty match-all filter.
func ParseSearch(c *fiber.Ctx, fields ...string) bson.M {
	return SearchFilter(c.Query("search"), fields...)
}

// SearchFilter is ParseSearch over an already-extracted search term.
func SearchFilter(search string, fields ...string) bson.M {
	if search == "" || len(fields) == 0 {
		return bson.M{}
	}

	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.M{field: bson.M{"$regex": search, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

// FindOptions combines a page window and sort document into mongo options.
func FindOptions(p Pagination, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSkip(p.Skip).
		SetLimit(int64(p.Limit)).
		SetSort(sort)
}
