// Package domain defines the persistence model for pre-join submissions.
// The type is mapped with GORM and forms the core data layer of the
// pre-join intake application.
package domain

import "time"

// CreatedAtLayout is the storage format for Submission.CreatedAt: ISO-8601
// in UTC with microsecond precision and a literal trailing "Z". The width
// is fixed so that lexicographic order of the stored strings matches
// chronological order.
const CreatedAtLayout = "2006-01-02T15:04:05.000000Z"

// Submission represents one recorded pre-registration. Rows are
// append-only: the application never updates or deletes a submission.
//
// Fields:
//   - ID: auto-increment primary key, assigned by the store; monotonic
//     with insertion order, which makes "id DESC" a stable tie-break for
//     listings ordered by CreatedAt.
//   - FullName: display name as submitted, surrounding whitespace trimmed.
//   - Email: lower-cased and trimmed before storage; unique across all
//     submissions (enforced by a unique index so concurrent inserts cannot
//     race past an application-level check).
//   - Consent: must be true at submission time; stored for audit.
//   - CreatedAt: UTC timestamp string in CreatedAtLayout, set at insert.
//   - UserAgent / IP: request metadata captured at insert time; may be empty.
type Submission struct {
	ID        int64  `json:"id"         gorm:"primaryKey;autoIncrement"`
	FullName  string `json:"full_name"  gorm:"type:varchar(255);not null"`
	Email     string `json:"email"      gorm:"type:varchar(320);not null;uniqueIndex:ux_prejoin_email"`
	Consent   bool   `json:"consent"    gorm:"not null"`
	CreatedAt string `json:"created_at" gorm:"type:varchar(32);not null;index:idx_prejoin_created"`
	UserAgent string `json:"user_agent" gorm:"type:text"`
	IP        string `json:"ip"         gorm:"type:varchar(64)"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "prejoin_submissions" }

// FormatCreatedAt renders t in CreatedAtLayout after converting to UTC.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}
