package handlers

import (
	"errors"
	"net/http"

	"grid-constraints/internal/api/models"
	"grid-constraints/internal/checks"
	"grid-constraints/internal/data"
	"grid-constraints/internal/powermodels"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondDomainError maps check, export and band service errors to status codes.
func respondDomainError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ce *checks.Error
	if errors.As(err, &ce) {
		status := http.StatusInternalServerError
		switch ce.Kind {
		case checks.KindNoResults, checks.KindPrerequisiteMissing:
			status = http.StatusConflict
		case checks.KindInvalidArgument:
			status = http.StatusBadRequest
		case checks.KindFatalConstraintViolation:
			status = http.StatusUnprocessableEntity
		}
		respondError(c, status, string(ce.Kind), err.Error(), nil)
		return
	}

	var bse *data.BandServiceError
	if errors.As(err, &bse) {
		status := http.StatusBadGateway
		switch bse.StatusCode {
		case http.StatusNotFound:
			status = http.StatusNotFound
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		}
		respondError(c, status, bse.Code, bse.Message, map[string]interface{}{
			"status_code": bse.StatusCode,
			"retry_after": bse.RetryAfter,
		})
		return
	}

	switch {
	case errors.Is(err, powermodels.ErrSlackMissing):
		respondError(c, http.StatusConflict, "SLACK_MISSING", err.Error(), nil)
	case errors.Is(err, powermodels.ErrUnknownComponent):
		respondError(c, http.StatusBadRequest, "UNKNOWN_COMPONENT", err.Error(), nil)
	case errors.Is(err, powermodels.ErrNoBandProvider):
		respondError(c, http.StatusBadRequest, "NO_BAND_PROVIDER", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}
