// Package services – IntakeService
//
// This file implements the IntakeService, which governs how pre-join
// submissions are recorded. It enforces the consent rule, persists the
// submission through the repository (which owns the uniqueness invariant),
// and then triggers the confirmation notification detached from the
// request lifecycle. Notification failures of any kind, including a
// failure to start the detached send, never change the outcome of the
// submission itself.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
	"github.com/vexa-app/go-prejoin-backend/internal/repo"
)

// Notifier delivers a confirmation message to a new registrant.
// Implementations must be safe for concurrent use; the IntakeService
// invokes them from detached goroutines.
type Notifier interface {
	// SendConfirmation attempts delivery and returns the first failure.
	SendConfirmation(ctx context.Context, toEmail, recipientName string) error
}

// IntakeService implements the use-case of recording a validated
// submission plus its best-effort confirmation send.
type IntakeService struct {
	// DB is the database handle used for all intake operations.
	DB *gorm.DB

	// Notifier receives the fire-and-forget confirmation send. A nil
	// Notifier disables notifications without affecting intake.
	Notifier Notifier
}

// Submit records a submission on behalf of a registrant.
//
// Semantics:
//   - consent must be true; otherwise ErrConsentRequired is returned before
//     any persistence attempt.
//   - The repository normalizes fullName/email and enforces email
//     uniqueness; a conflict surfaces as ErrDuplicateEmail.
//   - On success the confirmation send is scheduled detached: the caller
//     never waits on it and never observes its outcome. Failures inside the
//     detached send (including panics) are logged and discarded.
//
// Errors: ErrConsentRequired, ErrDuplicateEmail, or the underlying DB
// error for unexpected persistence faults.
func (s *IntakeService) Submit(ctx context.Context, fullName, email string, consent bool, userAgent, ip string) (*domain.Submission, error) {
	if !consent {
		return nil, ErrConsentRequired
	}

	sub, err := repo.InsertSubmission(ctx, s.DB, fullName, email, consent, userAgent, ip)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.notifyDetached(sub.Email, sub.FullName)
	return sub, nil
}

// notifyDetached launches the confirmation send without awaiting its
// result. The goroutine uses a background context (not the request
// context) so the send outlives the HTTP response, and a catch-all recover
// so no failure can escape the detached scope.
func (s *IntakeService) notifyDetached(email, name string) {
	if s.Notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn().
					Interface("panic", r).
					Str("email", email).
					Msg("confirmation send panicked")
			}
		}()
		if err := s.Notifier.SendConfirmation(context.Background(), email, name); err != nil {
			// One-shot, no retries. Logged so delivery problems are visible
			// in operations even though callers never see them.
			log.Warn().Err(err).Str("email", email).Msg("confirmation send failed")
		}
	}()
}
