// Pre-join HTTP handlers.
//
// This file exposes the REST endpoints for the pre-join submission
// resource:
//   - POST /api/prejoin             (record a submission)
//   - GET  /api/prejoin             (list, searchable, paginated)
//   - GET  /api/prejoin/export.csv  (full CSV export)
//
// Handlers are transport-thin: they validate input, delegate to
// application services, and translate domain/service errors into HTTP
// results. Request metadata (User-Agent, client IP) is captured here and
// handed to the intake service for storage.
package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vexa-app/go-prejoin-backend/internal/domain"
	"github.com/vexa-app/go-prejoin-backend/internal/http/middleware"
	"github.com/vexa-app/go-prejoin-backend/internal/services"
	"github.com/vexa-app/go-prejoin-backend/internal/utils"
)

const (
	// defaultPageSize applies when no limit query parameter is given.
	defaultPageSize = 20
	// maxPageSize is the boundary-enforced upper bound on limit.
	maxPageSize = 100
	// exportFilename is the fixed attachment name of the CSV export.
	exportFilename = "prejoin_export.csv"
)

//
// Service contracts (context-aware)
//

// IntakeService records validated submissions and triggers the detached
// confirmation send. Implementations must be safe for concurrent use and
// honor the provided context for the persistence step.
type IntakeService interface {
	// Submit records one submission; consent must be true and email unique.
	Submit(ctx context.Context, fullName, email string, consent bool, userAgent, ip string) (*domain.Submission, error)
}

// QueryService serves the read side: paginated listing and CSV export
// sharing one search predicate.
type QueryService interface {
	// Page returns one page of matching submissions plus the total count.
	Page(ctx context.Context, term string, page, pageSize int) ([]domain.Submission, int64, error)
	// WriteCSV streams the full matching set to w as CSV.
	WriteCSV(ctx context.Context, w io.Writer, term string) error
}

// MailSender performs a synchronous confirmation send whose outcome is
// surfaced to the caller (the diagnostic test-email endpoint).
type MailSender interface {
	SendConfirmation(ctx context.Context, toEmail, recipientName string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the pre-join API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	intake IntakeService
	query  QueryService
	mailer MailSender
}

// New constructs a Handlers instance bound to the given services.
func New(intake IntakeService, query QueryService, mailer MailSender) *Handlers {
	return &Handlers{intake: intake, query: query, mailer: mailer}
}

// PrejoinRequest is the JSON payload for creating a submission.
// Email syntax and the raw length of fullName are enforced by the binding
// layer; the handler additionally requires 3 characters after trimming.
type PrejoinRequest struct {
	FullName string `json:"fullName" binding:"required,min=3" example:"Ada Lovelace"`
	Email    string `json:"email"    binding:"required,email" example:"ada@test.com"`
	Consent  bool   `json:"consent"  example:"true"`
}

// PageResponse is the paginated listing envelope.
type PageResponse struct {
	Items    []domain.Submission `json:"items"`
	Page     int                 `json:"page" example:"1"`
	PageSize int                 `json:"pageSize" example:"20"`
	Total    int64               `json:"total" example:"42"`
}

// CreatePrejoin godoc
// @ID          createPrejoin
// @Summary     Record a pre-join submission
// @Description Persists a name/email/consent submission (email unique, normalized) and fires a best-effort confirmation email in the background.
// @Tags        Prejoin
// @Accept      json
// @Produce     json
// @Param       body body handlers.PrejoinRequest true "Submission payload"
// @Success     201 {object} handlers.OKResponse
// @Failure     400 {object} handlers.ErrorResponse "Invalid payload or missing consent"
// @Failure     409 {object} handlers.ErrorResponse "Email already registered"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /api/prejoin [post]
func (h *Handlers) CreatePrejoin(c *gin.Context) {
	var req PrejoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fullName (min 3 chars) and a valid email are required")
		return
	}
	if len(strings.TrimSpace(req.FullName)) < 3 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fullName must be at least 3 characters")
		return
	}

	_, err := h.intake.Submit(
		c.Request.Context(),
		req.FullName,
		req.Email,
		req.Consent,
		c.Request.UserAgent(),
		c.ClientIP(),
	)
	if err != nil {
		switch err {
		case services.ErrConsentRequired:
			fail(c, http.StatusBadRequest, ErrCodeConsentRequired, "consent required")
		case services.ErrDuplicateEmail:
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record submission")
		}
		return
	}

	ok(c, http.StatusCreated, OKResponse{OK: true})
}

// ListPrejoin godoc
// @ID          listPrejoin
// @Summary     List pre-join submissions
// @Description Paginated, searchable listing ordered newest first. q matches full_name or email as a case-insensitive substring.
// @Tags        Prejoin
// @Produce     json
// @Param       page  query int    false "Page number (>=1)"        default(1)
// @Param       limit query int    false "Page size (1..100)"       default(20)
// @Param       q     query string false "Free-text search term"
// @Success     200 {object} handlers.PageResponse
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /api/prejoin [get]
func (h *Handlers) ListPrejoin(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := utils.ClampInt(utils.AtoiDefault(c.Query("limit"), defaultPageSize), 1, maxPageSize)
	term := strings.TrimSpace(c.Query("q"))

	items, total, err := h.query.Page(c.Request.Context(), term, page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list submissions")
		return
	}
	if items == nil {
		items = []domain.Submission{}
	}

	ok(c, http.StatusOK, PageResponse{
		Items:    items,
		Page:     page,
		PageSize: limit,
		Total:    total,
	})
}

// ExportPrejoinCSV godoc
// @ID          exportPrejoinCSV
// @Summary     Export pre-join submissions as CSV
// @Description Streams the full (unpaginated) matching set as a CSV attachment with a header row.
// @Tags        Prejoin
// @Produce     text/csv
// @Param       q query string false "Free-text search term"
// @Success     200 {string} string "CSV payload"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /api/prejoin/export.csv [get]
func (h *Handlers) ExportPrejoinCSV(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename=`+exportFilename)

	if err := h.query.WriteCSV(c.Request.Context(), c.Writer, term); err != nil {
		// Headers may already be out; too late for a JSON envelope once
		// rows have been streamed.
		if !c.Writer.Written() {
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", "")
			fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not export submissions")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("csv export aborted mid-stream")
		c.Abort()
	}
}
