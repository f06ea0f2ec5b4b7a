// Package services – QueryService
//
// This file implements the read side of the pre-join API: paginated,
// searchable listing and full CSV export. Both operations share one search
// predicate (implemented in the repository) so a page and an export for
// the same term always agree on the matching set and its order.
package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"gorm.io/gorm"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
	"github.com/vexa-app/go-prejoin-backend/internal/repo"
)

// CSVHeader is the fixed column order of the export payload.
var CSVHeader = []string{"id", "full_name", "email", "consent", "created_at", "user_agent", "ip"}

// QueryService exposes paginated listing and full export over stored
// submissions. Read-only; it holds no state beyond the DB handle.
type QueryService struct {
	// DB is the database handle used for all queries.
	DB *gorm.DB
}

// Page returns one page of submissions matching term plus the total
// matching count, so callers can compute the page count.
// It applies defaults for invalid page/pageSize; the [1,100] upper bound
// on pageSize is the boundary layer's job.
func (s *QueryService) Page(ctx context.Context, term string, page, pageSize int) ([]domain.Submission, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSubmissions(ctx, s.DB, term)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListSubmissionsPage(ctx, s.DB, term, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// WriteCSV streams every submission matching term to w as CSV: a header
// row followed by one record per submission, in the same order as Page
// and with no pagination limit.
func (s *QueryService) WriteCSV(ctx context.Context, w io.Writer, term string) error {
	rows, err := repo.ListAllSubmissions(ctx, s.DB, term)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.FullName,
			r.Email,
			strconv.FormatBool(r.Consent),
			r.CreatedAt,
			r.UserAgent,
			r.IP,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
