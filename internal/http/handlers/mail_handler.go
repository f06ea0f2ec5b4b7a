// Diagnostic email HTTP handler.
//
// This file exposes the one path where a confirmation-send failure is
// surfaced to the caller:
//   - POST /api/test-email?to=&name=
//
// The intake flow sends confirmations detached and swallows failures; this
// endpoint performs the same send synchronously so operators can verify
// the SMTP transport end to end.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TestEmailRequest carries the query parameters of the diagnostic send.
type TestEmailRequest struct {
	To   string `form:"to"   binding:"required,email"`
	Name string `form:"name"`
}

// SendTestEmail godoc
// @ID          sendTestEmail
// @Summary     Send a test confirmation email
// @Description Performs a synchronous confirmation send and reports the outcome, including transport failures.
// @Tags        Diagnostics
// @Produce     json
// @Param       to   query string true  "Recipient address"
// @Param       name query string false "Recipient name used in the template"
// @Success     200 {object} handlers.OKResponse
// @Failure     400 {object} handlers.ErrorResponse "Missing or invalid recipient"
// @Failure     500 {object} handlers.ErrorResponse "Delivery failed"
// @Router      /api/test-email [post]
func (h *Handlers) SendTestEmail(c *gin.Context) {
	var req TestEmailRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a valid 'to' address is required")
		return
	}

	if err := h.mailer.SendConfirmation(c.Request.Context(), req.To, req.Name); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeEmailFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, OKResponse{OK: true})
}
