package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type listQuery struct {
	Limit  int
	Before *time.Time
}

// Page is one slice of a newest-first listing. NextCursor feeds the next
// request's before parameter.
type Page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// parseListQuery reads limit and before. Oversized limits are capped; a
// malformed value is rejected rather than ignored.
func parseListQuery(c *gin.Context) (listQuery, error) {
	q := listQuery{Limit: defaultPageSize}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("limit must be a positive integer, got %q", raw)
		}
		q.Limit = min(n, maxPageSize)
	}
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return q, fmt.Errorf("before must be an RFC3339 timestamp, got %q", raw)
		}
		q.Before = &t
	}
	return q, nil
}

// newPage expects rows fetched with limit+1 so it can tell whether more exist.
func newPage[T any](rows []T, limit int, ts func(T) time.Time) Page[T] {
	p := Page[T]{Data: rows, HasMore: len(rows) > limit}
	if p.HasMore {
		p.Data = rows[:limit]
		p.NextCursor = ts(p.Data[limit-1]).Format(time.RFC3339Nano)
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p
}
