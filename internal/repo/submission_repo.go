// Package repo implements the data persistence layer for pre-join
// submissions, backed by GORM. This file provides repository functions for
// the Submission model: uniqueness-constrained insert plus the shared
// search/count/list queries used by listing and export.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
)

// ErrDuplicateEmail is returned by InsertSubmission when the normalized
// email already exists. The unique index enforces this at the storage
// layer, so concurrent inserts for the same email cannot both succeed.
var ErrDuplicateEmail = errors.New("email already registered")

// NormalizeEmail trims surrounding whitespace and lower-cases an address.
// Applied before storage and before the uniqueness comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InsertSubmission persists one submission row. It normalizes the inputs
// (fullName trimmed; email trimmed and lower-cased), stamps CreatedAt with
// the current UTC time, and lets the database assign the ID.
//
// Returns ErrDuplicateEmail when the normalized email is already present;
// any other persistence fault is returned as the underlying driver error.
func InsertSubmission(ctx context.Context, db *gorm.DB, fullName, email string, consent bool, userAgent, ip string) (*domain.Submission, error) {
	s := &domain.Submission{
		FullName:  strings.TrimSpace(fullName),
		Email:     NormalizeEmail(email),
		Consent:   consent,
		CreatedAt: domain.FormatCreatedAt(time.Now()),
		UserAgent: userAgent,
		IP:        ip,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return s, nil
}

// CountSubmissions returns the number of rows matching term (see
// searchScope). An empty term counts every row.
func CountSubmissions(ctx context.Context, db *gorm.DB, term string) (int64, error) {
	var total int64
	err := searchScope(db.WithContext(ctx).Model(&domain.Submission{}), term).
		Count(&total).Error
	return total, err
}

// ListSubmissionsPage returns at most limit rows matching term, skipping
// offset rows, ordered newest first (CreatedAt DESC, ID DESC as a stable
// tie-break since IDs are monotonic with insertion).
func ListSubmissionsPage(ctx context.Context, db *gorm.DB, term string, offset, limit int) ([]domain.Submission, error) {
	var out []domain.Submission
	err := searchScope(db.WithContext(ctx), term).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAllSubmissions returns every row matching term with the same
// ordering as ListSubmissionsPage. Used for CSV export.
func ListAllSubmissions(ctx context.Context, db *gorm.DB, term string) ([]domain.Submission, error) {
	var out []domain.Submission
	err := searchScope(db.WithContext(ctx), term).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// searchScope applies the shared search predicate: term matches when it is
// a case-insensitive substring of full_name or email. SQLite's LIKE is
// case-insensitive for ASCII, which mirrors the intake normalization.
// The term is matched literally; it is not a caller-visible pattern language.
func searchScope(q *gorm.DB, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	like := "%" + term + "%"
	return q.Where("full_name LIKE ? OR email LIKE ?", like, like)
}

// isUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
