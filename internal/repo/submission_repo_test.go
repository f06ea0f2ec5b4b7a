package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
)

func newSubmissionDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("submission_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestInsertSubmission_Error_NoTable(t *testing.T) {
	db := newSubmissionDB(t /* no migrations */)
	sub, err := InsertSubmission(context.Background(), db, "Ada Lovelace", "ada@test.com", true, "", "")
	if err == nil || sub != nil {
		t.Fatalf("expected error inserting without table, got sub=%v err=%v", sub, err)
	}
	if errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("a missing table must not be reported as a duplicate: %v", err)
	}
}

func TestInsertSubmission_NormalizesAndStamps(t *testing.T) {
	db := newSubmissionDB(t, &domain.Submission{})

	before := time.Now().UTC().Add(-time.Minute)
	sub, err := InsertSubmission(context.Background(), db, "  Ada Lovelace  ", "  Ada@Test.COM ", true, "agent/1.0", "203.0.113.7")
	if err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}
	if sub.ID == 0 {
		t.Fatalf("expected store-assigned id, got %+v", sub)
	}
	if sub.FullName != "Ada Lovelace" {
		t.Fatalf("fullName not trimmed: %q", sub.FullName)
	}
	if sub.Email != "ada@test.com" {
		t.Fatalf("email not normalized: %q", sub.Email)
	}
	if !sub.Consent || sub.UserAgent != "agent/1.0" || sub.IP != "203.0.113.7" {
		t.Fatalf("unexpected fields: %+v", sub)
	}

	ts, err := time.Parse(domain.CreatedAtLayout, sub.CreatedAt)
	if err != nil {
		t.Fatalf("created_at %q not in layout: %v", sub.CreatedAt, err)
	}
	if ts.Before(before) {
		t.Fatalf("created_at seems unset/really old: %v", ts)
	}

	// round-trip
	var got domain.Submission
	if err := db.First(&got, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("load created submission: %v", err)
	}
	if got.Email != "ada@test.com" || got.FullName != "Ada Lovelace" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestInsertSubmission_DuplicateEmail_CaseAndWhitespaceInsensitive(t *testing.T) {
	db := newSubmissionDB(t, &domain.Submission{})

	if _, err := InsertSubmission(context.Background(), db, "Ada Lovelace", "A@Example.com ", true, "", ""); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := InsertSubmission(context.Background(), db, "Someone Else", "a@example.com", true, "", "")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var n int64
	if err := db.Model(&domain.Submission{}).Where("email = ?", "a@example.com").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("store must hold exactly one row for the email, got %d", n)
	}
}

func seedSubmission(t *testing.T, db *gorm.DB, id int64, name, email, createdAt string) {
	t.Helper()
	s := domain.Submission{
		ID:        id,
		FullName:  name,
		Email:     email,
		Consent:   true,
		CreatedAt: createdAt,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed %d: %v", id, err)
	}
}

func TestCountSubmissions_WithAndWithoutTerm(t *testing.T) {
	db := newSubmissionDB(t, &domain.Submission{})

	seedSubmission(t, db, 1, "Ada Lovelace", "ada@test.com", "2025-01-01T10:00:00.000000Z")
	seedSubmission(t, db, 2, "Grace Hopper", "grace@navy.mil", "2025-01-01T11:00:00.000000Z")
	seedSubmission(t, db, 3, "Alan Turing", "alan@bletchley.uk", "2025-01-01T12:00:00.000000Z")

	total, err := CountSubmissions(context.Background(), db, "")
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3, got %d", total)
	}

	// Matches name case-insensitively.
	got, err := CountSubmissions(context.Background(), db, "ADA")
	if err != nil {
		t.Fatalf("count term: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1 match for 'ADA', got %d", got)
	}

	// Matches email too.
	got, err = CountSubmissions(context.Background(), db, "navy")
	if err != nil {
		t.Fatalf("count term: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1 match for 'navy', got %d", got)
	}

	// Absent from both excludes everything.
	got, err = CountSubmissions(context.Background(), db, "zzz-not-there")
	if err != nil {
		t.Fatalf("count term: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 matches, got %d", got)
	}
}

func TestListSubmissionsPage_OrderAndWindow(t *testing.T) {
	db := newSubmissionDB(t, &domain.Submission{})

	// Two rows share a timestamp; id DESC breaks the tie.
	seedSubmission(t, db, 1, "First", "first@test.com", "2025-01-01T10:00:00.000000Z")
	seedSubmission(t, db, 2, "Second", "second@test.com", "2025-01-01T11:00:00.000000Z")
	seedSubmission(t, db, 3, "Third", "third@test.com", "2025-01-01T11:00:00.000000Z")
	seedSubmission(t, db, 4, "Fourth", "fourth@test.com", "2025-01-01T12:00:00.000000Z")

	page, err := ListSubmissionsPage(context.Background(), db, "", 0, 3)
	if err != nil {
		t.Fatalf("ListSubmissionsPage: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page))
	}
	if page[0].ID != 4 || page[1].ID != 3 || page[2].ID != 2 {
		t.Fatalf("unexpected order: %v %v %v", page[0].ID, page[1].ID, page[2].ID)
	}

	rest, err := ListSubmissionsPage(context.Background(), db, "", 3, 3)
	if err != nil {
		t.Fatalf("ListSubmissionsPage offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != 1 {
		t.Fatalf("expected trailing row id=1, got %+v", rest)
	}
}

func TestListAllSubmissions_MatchesPagePredicateUnbounded(t *testing.T) {
	db := newSubmissionDB(t, &domain.Submission{})

	seedSubmission(t, db, 1, "Ada Lovelace", "ada@test.com", "2025-01-01T10:00:00.000000Z")
	seedSubmission(t, db, 2, "Grace Hopper", "grace@navy.mil", "2025-01-01T11:00:00.000000Z")
	seedSubmission(t, db, 3, "Adam Smith", "adam@econ.org", "2025-01-01T12:00:00.000000Z")

	all, err := ListAllSubmissions(context.Background(), db, "ada")
	if err != nil {
		t.Fatalf("ListAllSubmissions: %v", err)
	}
	// "ada" is a substring of both "Ada Lovelace"/"ada@test.com" and "Adam Smith"/"adam@econ.org".
	if len(all) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(all))
	}
	if all[0].ID != 3 || all[1].ID != 1 {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Ada@Test.COM ": "ada@test.com",
		"ada@test.com":    "ada@test.com",
		"\tA@B.C\n":       "a@b.c",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: prejoin_submissions.email")) {
		t.Fatalf("sqlite message should be detected")
	}
	if !isUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_prejoin_email"`)) {
		t.Fatalf("postgres message should be detected")
	}
	if isUniqueViolation(errors.New("no such table: prejoin_submissions")) {
		t.Fatalf("unrelated error must not be detected as duplicate")
	}
}
