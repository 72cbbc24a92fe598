package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	"github.com/reefward/diveops/internal/clock"
	pricingdomain "github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/internal/pricing/snapshot"
	rentaldomain "github.com/reefward/diveops/internal/rental/domain"
	"github.com/reefward/diveops/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handlers struct {
	db       *gorm.DB
	pricing  pricingdomain.Service
	rentals  rentaldomain.Service
	bookings bookingdomain.Repository
	audit    auditdomain.Recorder
	clock    clock.Clock
	log      *zap.Logger
}

func NewHandlers(
	gdb *gorm.DB,
	pricing pricingdomain.Service,
	rentals rentaldomain.Service,
	bookings bookingdomain.Repository,
	audit auditdomain.Recorder,
	c clock.Clock,
	log *zap.Logger,
) *Handlers {
	return &Handlers{db: gdb, pricing: pricing, rentals: rentals, bookings: bookings, audit: audit, clock: c, log: log}
}

func pathID(c *gin.Context, name string) (snowflake.ID, bool) {
	raw, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || raw <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return snowflake.ID(raw), true
}

func actorFrom(c *gin.Context) pricingdomain.Actor {
	actor := pricingdomain.Actor{Name: c.GetHeader("X-Actor-Name")}
	if raw, err := strconv.ParseInt(c.GetHeader("X-Actor-Id"), 10, 64); err == nil {
		actor.ID = snowflake.ID(raw)
	}
	return actor
}

type quoteRequest struct {
	GasType                  string `json:"gas_type"`
	ParticipantCountOverride int    `json:"participant_count_override"`
}

func (h *Handlers) Quote(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req quoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	preview, err := h.pricing.Quote(c.Request.Context(), tripID, actorFrom(c), pricingdomain.Options{
		GasType:                  req.GasType,
		ParticipantCountOverride: req.ParticipantCountOverride,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

type snapshotRequest struct {
	GasType         string `json:"gas_type"`
	Force           bool   `json:"force"`
	AllowIncomplete bool   `json:"allow_incomplete"`
}

func (h *Handlers) Snapshot(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req snapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	booking, err := h.pricing.SnapshotBookingPricing(c.Request.Context(), bookingID, actorFrom(c), pricingdomain.Options{
		GasType:         req.GasType,
		Force:           req.Force,
		AllowIncomplete: req.AllowIncomplete,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_id":     booking.ID.String(),
		"price_amount":   booking.PriceAmount,
		"price_currency": booking.PriceCurrency,
		"snapshot":       booking.PriceSnapshot,
	})
}

func (h *Handlers) GetSnapshot(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.FindBooking(c.Request.Context(), h.db, bookingID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !booking.HasSnapshot() {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "booking has no price snapshot"})
		return
	}
	summary, err := snapshot.ExtractSummary(booking.PriceSnapshot)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_id": booking.ID.String(),
		"summary":    summary,
		"snapshot":   booking.PriceSnapshot,
	})
}

type rentalRequest struct {
	ParticipantID int64 `json:"participant_id" binding:"required"`
	ItemID        int64 `json:"item_id" binding:"required"`
	Quantity      int   `json:"quantity" binding:"required"`
}

func (h *Handlers) AddRental(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req rentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rental, err := h.rentals.AddRental(c.Request.Context(), bookingID,
		snowflake.ID(req.ParticipantID), snowflake.ID(req.ItemID), req.Quantity, actorFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, rental)
}

func (h *Handlers) ListRentals(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rentals, err := h.rentals.ListForBooking(c.Request.Context(), h.db, bookingID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rentals": rentals})
}

func (h *Handlers) ValidatePricing(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	problems, err := h.pricing.ValidateConfiguration(c.Request.Context(), tripID, h.clock.Now())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

type auditQuery struct {
	TargetType string `form:"target_type" binding:"required"`
	TargetID   int64  `form:"target_id" binding:"required"`
	pagination.Pagination
}

func (h *Handlers) ListAudit(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var before *time.Time
	if q.PageToken != "" {
		cursor, err := pagination.DecodeCursor(q.PageToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page_token"})
			return
		}
		t, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page_token"})
			return
		}
		before = &t
	}

	rows, err := h.audit.List(c.Request.Context(), h.db, q.TargetType, snowflake.ID(q.TargetID), before, q.PageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	page := pagination.PageInfo{HasMore: q.PageSize > 0 && len(rows) == q.PageSize}
	if page.HasMore {
		last := rows[len(rows)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		if err == nil {
			page.NextPageToken = token
		}
	}

	c.JSON(http.StatusOK, gin.H{"events": rows, "page_info": page})
}
