package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shatlykos/cafe-management-system/internal/repository"
)

var ErrNotFound = repository.ErrNotFound

type scanTarget interface {
	Scan(dest ...any) error
}

func normalizePagination(page repository.Pagination) (int32, int32) {
	limit := page.Limit
	offset := page.Offset

	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ensureAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
