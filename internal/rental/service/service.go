package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/observability/metrics"
	pricingdomain "github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/internal/rental/domain"
	"github.com/reefward/diveops/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db       *gorm.DB
	bookings bookingdomain.Repository
	pricer   pricingdomain.ComponentPricer
	audit    auditdomain.Recorder
	metrics  *metrics.Metrics
	clock    clock.Clock
	node     *snowflake.Node
	log      *zap.Logger
}

func New(
	gdb *gorm.DB,
	bookings bookingdomain.Repository,
	pricer pricingdomain.ComponentPricer,
	audit auditdomain.Recorder,
	m *metrics.Metrics,
	c clock.Clock,
	node *snowflake.Node,
	log *zap.Logger,
) domain.Service {
	return &service{
		db:       gdb,
		bookings: bookings,
		pricer:   pricer,
		audit:    audit,
		metrics:  m,
		clock:    c,
		node:     node,
		log:      log,
	}
}

func (s *service) AddRental(ctx context.Context, bookingID, participantID, itemID snowflake.ID, quantity int, actor pricingdomain.Actor) (*domain.EquipmentRental, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	booking, err := s.bookings.FindBooking(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ParticipantID != participantID {
		return nil, fmt.Errorf("%w: participant %d is not on booking %d", domain.ErrParticipantMismatch, participantID, bookingID)
	}
	trip, err := s.bookings.FindTrip(ctx, s.db, booking.TripID)
	if err != nil {
		return nil, err
	}

	// Price at rental time; a missing rule propagates instead of
	// defaulting the line to zero.
	price, err := s.pricer.ResolveComponentByID(ctx, s.db, itemID, pricingdomain.ComponentHints{
		OrganizationID: trip.ShopID,
		PartyID:        participantID,
		AgreementID:    booking.AgreementID,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	rental := &domain.EquipmentRental{
		ID:            s.node.Generate(),
		BookingID:     bookingID,
		ParticipantID: participantID,
		ItemID:        itemID,
		ItemName:      price.ItemName,
		Quantity:      quantity,
		UnitCost:      price.Cost.Quantized().Amount,
		UnitCharge:    price.Charge.Quantized().Amount,
		Currency:      price.Charge.Currency,
		PriceRuleID:   price.RuleID,
	}
	if err := s.db.WithContext(ctx).Create(rental).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: booking %d participant %d item %d",
				pricingdomain.ErrDuplicateRental, bookingID, participantID, itemID)
		}
		return nil, err
	}

	s.audit.Record(ctx, s.db, auditdomain.Event{
		Action:     auditdomain.ActionEquipmentRented,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetType: "booking",
		TargetID:   bookingID,
		Data: map[string]any{
			"rental_id":   rental.ID.String(),
			"item_id":     itemID.String(),
			"quantity":    quantity,
			"unit_charge": rental.UnitCharge.StringFixed(2),
			"currency":    rental.Currency,
		},
	})
	s.metrics.RecordRental(ctx)

	return rental, nil
}

func (s *service) ListForBooking(ctx context.Context, gdb *gorm.DB, bookingID snowflake.ID) ([]domain.EquipmentRental, error) {
	if gdb == nil {
		gdb = s.db
	}
	var rentals []domain.EquipmentRental
	err := gdb.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}
	return rentals, nil
}
