package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Submission{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubNotifier records sends on a channel so tests can await the detached
// goroutine without sleeping.
type stubNotifier struct {
	calls chan [2]string
	err   error
	panic bool
}

func (s *stubNotifier) SendConfirmation(_ context.Context, to, name string) error {
	if s.calls != nil {
		s.calls <- [2]string{to, name}
	}
	if s.panic {
		panic("boom")
	}
	return s.err
}

func awaitCall(t *testing.T, ch chan [2]string) [2]string {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("notifier was not invoked")
		return [2]string{}
	}
}

func TestSubmit_ConsentRequired_NothingPersisted(t *testing.T) {
	db := newServiceDB(t)
	n := &stubNotifier{calls: make(chan [2]string, 1)}
	svc := &IntakeService{DB: db, Notifier: n}

	_, err := svc.Submit(context.Background(), "Ada Lovelace", "ada@test.com", false, "", "")
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}

	var total int64
	if err := db.Model(&domain.Submission{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("no row may be persisted on consent failure, got %d", total)
	}
	select {
	case c := <-n.calls:
		t.Fatalf("notifier must not run on consent failure, got %v", c)
	default:
	}
}

func TestSubmit_Success_PersistsAndNotifiesDetached(t *testing.T) {
	db := newServiceDB(t)
	n := &stubNotifier{calls: make(chan [2]string, 1)}
	svc := &IntakeService{DB: db, Notifier: n}

	sub, err := svc.Submit(context.Background(), " Ada Lovelace ", " Ada@Test.com ", true, "agent/1.0", "203.0.113.7")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Email != "ada@test.com" || sub.FullName != "Ada Lovelace" {
		t.Fatalf("normalization mismatch: %+v", sub)
	}

	got := awaitCall(t, n.calls)
	// The notifier receives the normalized email and trimmed name.
	if got[0] != "ada@test.com" || got[1] != "Ada Lovelace" {
		t.Fatalf("unexpected notifier args: %v", got)
	}
}

func TestSubmit_DuplicateEmail_MappedAndSingleRow(t *testing.T) {
	db := newServiceDB(t)
	svc := &IntakeService{DB: db}

	if _, err := svc.Submit(context.Background(), "Ada Lovelace", "A@Example.com ", true, "", ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), "Ada Again", "a@example.com", true, "", "")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var total int64
	if err := db.Model(&domain.Submission{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected exactly one row, got %d", total)
	}
}

func TestSubmit_NotifierFailureDoesNotAffectOutcome(t *testing.T) {
	db := newServiceDB(t)
	n := &stubNotifier{calls: make(chan [2]string, 1), err: errors.New("transport unreachable")}
	svc := &IntakeService{DB: db, Notifier: n}

	sub, err := svc.Submit(context.Background(), "Grace Hopper", "grace@navy.mil", true, "", "")
	if err != nil {
		t.Fatalf("Submit must succeed despite notifier failure: %v", err)
	}
	awaitCall(t, n.calls)

	var got domain.Submission
	if err := db.First(&got, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("row must be persisted: %v", err)
	}
}

func TestSubmit_NotifierPanicIsContained(t *testing.T) {
	db := newServiceDB(t)
	n := &stubNotifier{calls: make(chan [2]string, 1), panic: true}
	svc := &IntakeService{DB: db, Notifier: n}

	if _, err := svc.Submit(context.Background(), "Alan Turing", "alan@bletchley.uk", true, "", ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	awaitCall(t, n.calls)
	// Give the detached goroutine a moment to hit its recover; the test
	// process surviving is the assertion.
	time.Sleep(50 * time.Millisecond)
}

func TestSubmit_NilNotifierTolerated(t *testing.T) {
	db := newServiceDB(t)
	svc := &IntakeService{DB: db}

	if _, err := svc.Submit(context.Background(), "Ada Lovelace", "ada@test.com", true, "", ""); err != nil {
		t.Fatalf("Submit with nil notifier: %v", err)
	}
}
