package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	partydomain "github.com/reefward/diveops/internal/party/domain"
	pricingdomain "github.com/reefward/diveops/internal/pricing/domain"
	rentaldomain "github.com/reefward/diveops/internal/rental/domain"
	"github.com/reefward/diveops/pkg/money"
	"go.uber.org/zap"
)

// respondError maps the pricing error taxonomy onto HTTP statuses.
// Configuration problems are 422: the request was well-formed, the
// pricing setup is not.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, bookingdomain.ErrTripNotFound),
		errors.Is(err, bookingdomain.ErrSiteNotFound),
		errors.Is(err, partydomain.ErrOrganizationNotFound),
		errors.Is(err, partydomain.ErrPersonNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pricingdomain.ErrSnapshotImmutable),
		errors.Is(err, pricingdomain.ErrDuplicateRental):
		status = http.StatusConflict
	case errors.Is(err, rentaldomain.ErrParticipantMismatch),
		errors.Is(err, rentaldomain.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case pricingdomain.IsConfiguration(err),
		errors.Is(err, pricingdomain.ErrValidationFailed),
		errors.Is(err, money.ErrCurrencyMismatch):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
