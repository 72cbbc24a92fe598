package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/config"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	ledgerservice "github.com/reefward/diveops/internal/ledger/service"
	"github.com/reefward/diveops/internal/observability/metrics"
	"github.com/reefward/diveops/internal/pricing/calc"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/internal/pricing/snapshot"
	rentaldomain "github.com/reefward/diveops/internal/rental/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db         *gorm.DB
	bookings   bookingdomain.Repository
	contracts  contractdomain.Registry
	tiers      *calc.TierCalculator
	pricer     domain.ComponentPricer
	rentals    rentaldomain.Service
	builder    *snapshot.Builder
	poster     *ledgerservice.Poster
	audit      auditdomain.Recorder
	metrics    *metrics.Metrics
	pricingCfg *config.PricingConfigHolder
	clock      clock.Clock
	log        *zap.Logger
}

func New(
	db *gorm.DB,
	bookings bookingdomain.Repository,
	contracts contractdomain.Registry,
	tiers *calc.TierCalculator,
	pricer domain.ComponentPricer,
	rentals rentaldomain.Service,
	builder *snapshot.Builder,
	poster *ledgerservice.Poster,
	audit auditdomain.Recorder,
	m *metrics.Metrics,
	pricingCfg *config.PricingConfigHolder,
	c clock.Clock,
	log *zap.Logger,
) domain.Service {
	return &service{
		db:         db,
		bookings:   bookings,
		contracts:  contracts,
		tiers:      tiers,
		pricer:     pricer,
		rentals:    rentals,
		builder:    builder,
		poster:     poster,
		audit:      audit,
		metrics:    m,
		pricingCfg: pricingCfg,
		clock:      c,
		log:        log,
	}
}

// Quote previews trip pricing without touching the booking or the ledger.
// Missing configuration degrades to warnings; the preview is tagged as a
// quote so it can never be mistaken for a frozen snapshot.
func (s *service) Quote(ctx context.Context, tripID snowflake.ID, actor domain.Actor, opts domain.Options) (map[string]any, error) {
	trip, err := s.bookings.FindTrip(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}

	count := opts.ParticipantCountOverride
	if count == 0 {
		count, err = s.bookings.CountActiveParticipants(ctx, s.db, tripID)
		if err != nil {
			return nil, err
		}
	}
	gasType := s.gasTypeOrDefault(opts.GasType)
	at := s.clock.Now()

	hints := domain.ComponentHints{OrganizationID: trip.ShopID}
	comp, err := s.compute(ctx, s.db, trip, hints, count, gasType, nil, true, at)
	if err != nil {
		return nil, err
	}

	snap, err := s.builder.Build(s.inputsFor(trip, 0, comp, at), *comp)
	if err != nil {
		return nil, err
	}
	snap.IsQuote = true

	s.audit.Record(ctx, s.db, auditdomain.Event{
		Action:     auditdomain.ActionQuoteGenerated,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetType: "trip",
		TargetID:   tripID,
		Data: map[string]any{
			"gas_type":          gasType,
			"participant_count": count,
			"output_hash":       snap.Metadata.OutputHash,
			"warnings":          len(snap.Warnings),
		},
	})
	s.metrics.RecordQuote(ctx, gasType)

	return asMap(snap)
}

// SnapshotBookingPricing freezes pricing onto a booking and posts the
// ledger transaction. The booking row stays locked for the whole
// sequence; nothing is written unless every step succeeds.
func (s *service) SnapshotBookingPricing(ctx context.Context, bookingID snowflake.ID, actor domain.Actor, opts domain.Options) (*bookingdomain.Booking, error) {
	var (
		result *bookingdomain.Booking
		posted bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindBookingForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.HasSnapshot() && !opts.Force {
			return fmt.Errorf("%w: booking %d", domain.ErrSnapshotImmutable, bookingID)
		}

		trip, err := s.bookings.FindTrip(ctx, tx, booking.TripID)
		if err != nil {
			return err
		}

		count := opts.ParticipantCountOverride
		if count == 0 {
			count, err = s.bookings.CountActiveParticipants(ctx, tx, trip.ID)
			if err != nil {
				return err
			}
			if count <= 0 {
				// At minimum, the booking being priced.
				count = 1
			}
		}
		gasType := opts.GasType
		if gasType == "" {
			gasType = booking.GasType
		}
		gasType = s.gasTypeOrDefault(gasType)
		at := s.clock.Now()

		rentalRows, err := s.rentals.ListForBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		hints := domain.ComponentHints{
			OrganizationID: trip.ShopID,
			PartyID:        booking.ParticipantID,
			AgreementID:    booking.AgreementID,
		}
		comp, err := s.compute(ctx, tx, trip, hints, count, gasType, rentalLines(rentalRows), opts.AllowIncomplete, at)
		if err != nil {
			return err
		}

		snap, err := s.builder.Build(s.inputsFor(trip, bookingID, comp, at), *comp)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		amount := comp.Totals.TotalChargePerParticipant
		booking.PriceSnapshot = raw
		booking.PriceAmount = &amount
		booking.PriceCurrency = comp.Totals.Currency
		if err := s.bookings.SaveSnapshot(ctx, tx, booking); err != nil {
			return err
		}

		txn, err := s.poster.PostBookingPricing(ctx, tx, trip.ShopID, bookingID, *comp)
		if err != nil {
			return err
		}

		data := map[string]any{
			"output_hash": snap.Metadata.OutputHash,
			"forced":      opts.Force,
			"warnings":    len(snap.Warnings),
		}
		if txn != nil {
			data["transaction_id"] = txn.ID.String()
			posted = true
		}
		s.audit.Record(ctx, tx, auditdomain.Event{
			Action:     auditdomain.ActionSnapshotted,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			TargetType: "booking",
			TargetID:   bookingID,
			Data:       data,
		})
		if opts.AllowIncomplete && len(snap.Warnings) > 0 {
			s.audit.Record(ctx, tx, auditdomain.Event{
				Action:     auditdomain.ActionValidationFailed,
				ActorID:    actor.ID,
				ActorName:  actor.Name,
				TargetType: "booking",
				TargetID:   bookingID,
				Data:       map[string]any{"warnings": snap.Warnings},
			})
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSnapshot(ctx, opts.Force)
	if posted {
		s.metrics.RecordLedgerPosting(ctx)
	}
	return result, nil
}

func (s *service) gasTypeOrDefault(gasType string) string {
	if gasType == "" {
		return s.pricingCfg.Get().DefaultGasType
	}
	return gasType
}

func (s *service) inputsFor(trip *bookingdomain.Trip, bookingID snowflake.ID, comp *domain.Computation, at time.Time) snapshot.InputsSnapshot {
	return snapshot.InputsSnapshot{
		BookingID:        snapshot.IDString(bookingID),
		TripID:           trip.ID.String(),
		SiteID:           trip.SiteID.String(),
		ShopID:           trip.ShopID.String(),
		ParticipantCount: comp.ParticipantCount,
		GasType:          comp.GasType,
		DivesPerTrip:     trip.DivesPerTrip,
		AsOf:             at.Format(time.RFC3339),
	}
}

func moneyOf(amount decimal.Decimal, currency string) money.Money {
	return money.New(amount, currency)
}

func rentalLines(rows []rentaldomain.EquipmentRental) []domain.RentalLine {
	lines := make([]domain.RentalLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, domain.RentalLine{
			RentalID:      r.ID,
			ParticipantID: r.ParticipantID,
			ItemID:        r.ItemID,
			ItemName:      r.ItemName,
			Quantity:      r.Quantity,
			UnitCost:      moneyOf(r.UnitCost, r.Currency),
			UnitCharge:    moneyOf(r.UnitCharge, r.Currency),
		})
	}
	return lines
}

func asMap(snap *snapshot.Snapshot) (map[string]any, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
