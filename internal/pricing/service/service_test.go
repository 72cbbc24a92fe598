package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	auditservice "github.com/reefward/diveops/internal/audit/service"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	bookingrepo "github.com/reefward/diveops/internal/booking/repository"
	catalogdomain "github.com/reefward/diveops/internal/catalog/domain"
	catalogrepo "github.com/reefward/diveops/internal/catalog/repository"
	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/config"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	contractrepo "github.com/reefward/diveops/internal/contract/repository"
	ledgerdomain "github.com/reefward/diveops/internal/ledger/domain"
	ledgerrepo "github.com/reefward/diveops/internal/ledger/repository"
	ledgerservice "github.com/reefward/diveops/internal/ledger/service"
	partydomain "github.com/reefward/diveops/internal/party/domain"
	priceruledomain "github.com/reefward/diveops/internal/pricerule/domain"
	pricerulerepo "github.com/reefward/diveops/internal/pricerule/repository"
	priceruleservice "github.com/reefward/diveops/internal/pricerule/service"
	"github.com/reefward/diveops/internal/pricing/calc"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/internal/pricing/snapshot"
	rentaldomain "github.com/reefward/diveops/internal/rental/domain"
	rentalservice "github.com/reefward/diveops/internal/rental/service"
	"github.com/reefward/diveops/internal/scope"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.uber.org/zap"
)

const (
	shopID       = snowflake.ID(1)
	boatVendorID = snowflake.ID(2)
	gasVendorID  = snowflake.ID(3)
	siteID       = snowflake.ID(5)
	tripID       = snowflake.ID(7)
	diverID      = snowflake.ID(20)
	bookingID    = snowflake.ID(100)

	boatContractID = snowflake.ID(301)
	gasContractID  = snowflake.ID(302)

	guideItemID   = snowflake.ID(401)
	parkItemID    = snowflake.ID(402)
	wetsuitItemID = snowflake.ID(403)
)

type env struct {
	db      *gorm.DB
	svc     domain.Service
	rentals rentaldomain.Service
	clock   *clock.FakeClock
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&partydomain.Organization{}, &partydomain.Person{},
		&catalogdomain.Item{},
		&contractdomain.Contract{},
		&priceruledomain.PriceRule{},
		&bookingdomain.Site{}, &bookingdomain.Trip{}, &bookingdomain.Booking{},
		&rentaldomain.EquipmentRental{},
		&ledgerdomain.Account{}, &ledgerdomain.Transaction{}, &ledgerdomain.Entry{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fc := clock.NewFakeClock(time.Date(2026, 8, 15, 8, 0, 0, 0, time.UTC))

	bookings := bookingrepo.Provide()
	contracts := contractrepo.Provide()
	catalog := catalogrepo.Provide()
	rules := pricerulerepo.Provide()
	resolver := priceruleservice.NewResolver(rules, log)

	tiers := calc.NewTierCalculator(contracts)
	pricer := calc.NewComponentPricer(catalog, resolver)
	builder := snapshot.NewBuilder(fc)

	ledgerRepo := ledgerrepo.Provide(node)
	poster := ledgerservice.NewPoster(ledgerRepo, contracts, fc, log)

	audit := auditservice.NewRecorder(node, log)
	holder := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())

	rentals := rentalservice.New(db, bookings, pricer, audit, nil, fc, node, log)
	svc := New(db, bookings, contracts, tiers, pricer, rentals, builder, poster, audit, nil, holder, fc, log)

	seed(t, db)
	return &env{db: db, svc: svc, rentals: rentals, clock: fc}
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create([]partydomain.Organization{
		{ID: shopID, Name: "Reefward Diving", Kind: partydomain.OrganizationKindShop},
		{ID: boatVendorID, Name: "Caribe Charters", Kind: partydomain.OrganizationKindVendor},
		{ID: gasVendorID, Name: "Nitrox Supply Co", Kind: partydomain.OrganizationKindVendor},
	}).Error)
	require.NoError(t, db.Create(&partydomain.Person{ID: diverID, GivenName: "Ana", FamilyName: "Robles"}).Error)

	require.NoError(t, db.Create(&bookingdomain.Site{ID: siteID, Name: "Palancar Reef"}).Error)
	require.NoError(t, db.Create(&bookingdomain.Trip{
		ID: tripID, ShopID: shopID, SiteID: siteID,
		DepartsAt: time.Date(2026, 8, 16, 7, 0, 0, 0, time.UTC), DivesPerTrip: 2,
	}).Error)

	bookings := []bookingdomain.Booking{
		{ID: bookingID, TripID: tripID, ParticipantID: diverID, Status: bookingdomain.StatusConfirmed, GasType: "air"},
		{ID: 101, TripID: tripID, ParticipantID: 21, Status: bookingdomain.StatusConfirmed, GasType: "air"},
		{ID: 102, TripID: tripID, ParticipantID: 22, Status: bookingdomain.StatusCheckedIn, GasType: "ean32"},
		{ID: 103, TripID: tripID, ParticipantID: 23, Status: bookingdomain.StatusConfirmed, GasType: "air"},
		{ID: 104, TripID: tripID, ParticipantID: 24, Status: bookingdomain.StatusCancelled, GasType: "air"},
	}
	require.NoError(t, db.Create(&bookings).Error)

	require.NoError(t, db.Create([]contractdomain.Contract{
		{
			ID: boatContractID, Tag: contractdomain.TagVendorPricing,
			ScopeKind: contractdomain.ScopeKindSite, ScopeRef: siteID,
			CounterpartyID: boatVendorID, ValidFrom: from,
			Terms: datatypes.JSONMap{
				"boat_charter": map[string]any{
					"base_cost": "1800", "included_count": 4,
					"overage_per_unit": "150", "currency": "MXN",
				},
			},
		},
		{
			ID: gasContractID, Tag: contractdomain.TagGasPricing,
			ScopeKind: contractdomain.ScopeKindOrganization, ScopeRef: shopID,
			CounterpartyID: gasVendorID, ValidFrom: from,
			Terms: datatypes.JSONMap{
				"gas_fills": map[string]any{
					"air":   map[string]any{"cost": "45.00", "charge": "80.00", "currency": "MXN"},
					"ean32": map[string]any{"cost": "90.00", "charge": "150.00", "currency": "MXN"},
					"ean36": map[string]any{"cost": "110.00", "charge": "175.00", "currency": "MXN"},
				},
			},
		},
	}).Error)

	require.NoError(t, db.Create([]catalogdomain.Item{
		{ID: guideItemID, DisplayName: "Guide Fee", Kind: catalogdomain.ItemKindComponent, Active: true},
		{ID: parkItemID, DisplayName: "Park Entry Fee", Kind: catalogdomain.ItemKindComponent, Active: true},
		{ID: wetsuitItemID, DisplayName: "Wetsuit", Kind: catalogdomain.ItemKindEquipment, Active: true},
	}).Error)

	cost := func(s string) *decimal.Decimal {
		d := dec(s)
		return &d
	}
	require.NoError(t, db.Create([]priceruledomain.PriceRule{
		{ID: 501, ItemID: guideItemID, ScopeType: scope.TypeGlobal, Amount: dec("350.00"), Currency: "MXN", CostAmount: cost("200.00"), ValidFrom: from},
		{ID: 502, ItemID: guideItemID, ScopeType: scope.TypeParty, ScopeRef: diverID, Amount: dec("300.00"), Currency: "MXN", CostAmount: cost("200.00"), ValidFrom: from},
		{ID: 503, ItemID: parkItemID, ScopeType: scope.TypeGlobal, Amount: dec("100.00"), Currency: "MXN", CostAmount: cost("60.00"), ValidFrom: from},
		{ID: 504, ItemID: wetsuitItemID, ScopeType: scope.TypeGlobal, Amount: dec("150.00"), Currency: "MXN", CostAmount: cost("50.00"), ValidFrom: from},
	}).Error)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func actor() domain.Actor { return domain.Actor{ID: 9, Name: "front desk"} }

func parseSnapshot(t *testing.T, raw datatypes.JSON) snapshot.Snapshot {
	t.Helper()
	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func lineByKey(t *testing.T, snap snapshot.Snapshot, key string) snapshot.LineSnapshot {
	t.Helper()
	for _, l := range snap.Lines {
		if l.Key == key {
			return l
		}
	}
	t.Fatalf("line %q not in snapshot", key)
	return snapshot.LineSnapshot{}
}

func TestSnapshot_FreezesPricingAndPostsLedger(t *testing.T) {
	e := setupEnv(t)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)
	require.NotNil(t, booking)

	// 4 active participants. Shared: boat 1800 pass-through plus the
	// diver's party guide rule (300 charge / 200 cost), 2100/4 = 525 per
	// head charged, 2000/4 = 500 cost. Per participant: gas air 2 fills
	// at 90 cost / 0 charge (bundled) and park 100/60.
	require.NotNil(t, booking.PriceAmount)
	assert.True(t, booking.PriceAmount.Equal(dec("625.00")), "price = %s", booking.PriceAmount)
	assert.Equal(t, "MXN", booking.PriceCurrency)

	snap := parseSnapshot(t, booking.PriceSnapshot)
	assert.Equal(t, snapshot.SchemaVersion, snap.Metadata.SchemaVersion)
	assert.Contains(t, snap.Metadata.InputHash, "sha256:")
	assert.Contains(t, snap.Metadata.OutputHash, "sha256:")
	assert.False(t, snap.IsQuote)
	assert.Empty(t, snap.Warnings)

	guide := lineByKey(t, snap, domain.LineKeyGuideFee)
	assert.Equal(t, "300.00", guide.Charge.Amount)
	assert.Equal(t, string(domain.AllocationShared), guide.Allocation)
	park := lineByKey(t, snap, domain.LineKeyParkBracelet)
	assert.Equal(t, string(domain.AllocationPerParticipant), park.Allocation)
	assert.Equal(t, "500.00", snap.Totals.SharedCostPerHead)
	assert.Equal(t, "525.00", snap.Totals.SharedChargePerHead)
	assert.Equal(t, "625.00", snap.Totals.TotalChargePerParticipant)
	assert.Equal(t, "650.00", snap.Totals.TotalCostPerParticipant)
	assert.Equal(t, "-25.00", snap.Totals.Margin)

	var txn ledgerdomain.Transaction
	require.NoError(t, e.db.Preload("Entries").Where("booking_id = ?", bookingID).First(&txn).Error)
	assert.True(t, txn.Balanced())

	// Boat vendor gets this booking's 450 share, gas vendor 90, and the
	// guide share plus park cost (50 + 60) falls to the shop's own
	// payables.
	assertPayable(t, e.db, txn.ID, boatVendorID, "450.00")
	assertPayable(t, e.db, txn.ID, gasVendorID, "90.00")
	assertPayable(t, e.db, txn.ID, shopID, "110.00")
}

func TestSnapshot_GasBundledAtZeroCharge(t *testing.T) {
	e := setupEnv(t)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)

	gas := lineByKey(t, parseSnapshot(t, booking.PriceSnapshot), domain.LineKeyGasFill)
	assert.Equal(t, "90.00", gas.Cost.Amount)
	assert.Equal(t, "0.00", gas.Charge.Amount)
}

func assertPayable(t *testing.T, db *gorm.DB, txnID, ownerID snowflake.ID, amount string) {
	t.Helper()
	var account ledgerdomain.Account
	require.NoError(t, db.Where("owner_id = ? AND account_type = ?", ownerID, ledgerdomain.AccountPayable).First(&account).Error)
	var entry ledgerdomain.Entry
	require.NoError(t, db.Where("transaction_id = ? AND account_id = ?", txnID, account.ID).First(&entry).Error)
	assert.Equal(t, ledgerdomain.DirectionCredit, entry.Direction)
	assert.True(t, entry.Amount.Equal(dec(amount)), "payable for %d = %s", ownerID, entry.Amount)
}

func TestSnapshot_WriteOnceUnlessForced(t *testing.T) {
	e := setupEnv(t)

	first, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)

	_, err = e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	assert.ErrorIs(t, err, domain.ErrSnapshotImmutable)

	e.clock.Advance(time.Hour)
	forced, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{Force: true})
	require.NoError(t, err)

	a := parseSnapshot(t, first.PriceSnapshot)
	b := parseSnapshot(t, forced.PriceSnapshot)
	assert.Equal(t, a.Metadata.OutputHash, b.Metadata.OutputHash)
	assert.NotEqual(t, a.Metadata.GeneratedAt, b.Metadata.GeneratedAt)
}

func TestSnapshot_EmptyRosterStillPricesThisBooking(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Model(&bookingdomain.Booking{}).Where("trip_id = ?", tripID).
		Update("status", bookingdomain.StatusCancelled).Error)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)

	// No confirmed roster, so this booking carries the shared lines alone.
	snap := parseSnapshot(t, booking.PriceSnapshot)
	assert.Equal(t, 1, snap.Inputs.ParticipantCount)
	assert.Equal(t, "2100.00", snap.Totals.SharedChargePerHead)
}

func TestSnapshot_StrictAbortsAtomically(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Delete(&contractdomain.Contract{}, "id = ?", gasContractID).Error)

	_, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	assert.ErrorIs(t, err, domain.ErrMissingVendorAgreement)

	// Nothing was written: no snapshot on the booking, no ledger rows.
	var booking bookingdomain.Booking
	require.NoError(t, e.db.First(&booking, "id = ?", bookingID).Error)
	assert.False(t, booking.HasSnapshot())
	assert.Nil(t, booking.PriceAmount)

	var txns int64
	require.NoError(t, e.db.Model(&ledgerdomain.Transaction{}).Count(&txns).Error)
	assert.Zero(t, txns)
}

func TestSnapshot_LenientOmitsLineWithWarning(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Delete(&contractdomain.Contract{}, "id = ?", gasContractID).Error)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{AllowIncomplete: true})
	require.NoError(t, err)

	snap := parseSnapshot(t, booking.PriceSnapshot)
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "gas_vendor_pricing")
	for _, l := range snap.Lines {
		assert.NotEqual(t, domain.LineKeyGasFill, l.Key)
	}
	// Gas carries no customer charge, so the price stands; only its 90
	// fill cost drops out.
	assert.True(t, booking.PriceAmount.Equal(dec("625.00")))
	assert.Equal(t, "560.00", snap.Totals.TotalCostPerParticipant)

	// Allowing an incomplete snapshot leaves a validation audit trail.
	var logRow auditdomain.AuditLog
	require.NoError(t, e.db.Where("action = ? AND target_id = ?",
		auditdomain.ActionValidationFailed, bookingID).First(&logRow).Error)
	warned, ok := logRow.Data["warnings"].([]any)
	require.True(t, ok)
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0].(string), "gas_vendor_pricing")
}

func TestSnapshot_StrictLeavesNoValidationAudit(t *testing.T) {
	e := setupEnv(t)

	_, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)

	var logs int64
	require.NoError(t, e.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", auditdomain.ActionValidationFailed).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestQuote_MissingConfigBecomesWarning(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Delete(&contractdomain.Contract{}, "id = ?", boatContractID).Error)

	preview, err := e.svc.Quote(context.Background(), tripID, actor(), domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, true, preview["is_quote"])
	warnings, ok := preview["warnings"].([]any)
	require.True(t, ok)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].(string), "vendor_pricing")

	// Totals still come back, just without the boat share: the global
	// guide fee (350) splits 4 ways, park adds 100 per head.
	totals := preview["totals"].(map[string]any)
	assert.Equal(t, "187.50", totals["total_charge_per_participant"])
	assert.Equal(t, "87.50", totals["shared_charge_per_head"])

	// Quotes never persist or post.
	var txns int64
	require.NoError(t, e.db.Model(&ledgerdomain.Transaction{}).Count(&txns).Error)
	assert.Zero(t, txns)
	var booking bookingdomain.Booking
	require.NoError(t, e.db.First(&booking, "id = ?", bookingID).Error)
	assert.False(t, booking.HasSnapshot())
}

func TestQuote_UsesGlobalRulesWithoutPartyHints(t *testing.T) {
	e := setupEnv(t)

	preview, err := e.svc.Quote(context.Background(), tripID, actor(), domain.Options{})
	require.NoError(t, err)

	lines := preview["lines"].([]any)
	var guideCharge string
	for _, raw := range lines {
		line := raw.(map[string]any)
		if line["key"] == domain.LineKeyGuideFee {
			guideCharge = line["charge"].(map[string]any)["amount"].(string)
		}
	}
	// Trip-level quotes carry no party hint, so the diver's discounted
	// party rule does not apply here.
	assert.Equal(t, "350.00", guideCharge)
}

func TestQuote_ParticipantCountOverride(t *testing.T) {
	e := setupEnv(t)

	preview, err := e.svc.Quote(context.Background(), tripID, actor(), domain.Options{ParticipantCountOverride: 6})
	require.NoError(t, err)

	totals := preview["totals"].(map[string]any)
	// Boat base 1800 + 2 overage heads * 150 = 2100, plus the shared
	// 350 guide fee, split 6 ways.
	assert.Equal(t, "408.33", totals["shared_charge_per_head"])
}

func TestQuote_NoParticipantsFails(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Exec("DELETE FROM bookings").Error)

	_, err := e.svc.Quote(context.Background(), tripID, actor(), domain.Options{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestQuote_UnknownGasTypeFails(t *testing.T) {
	e := setupEnv(t)

	_, err := e.svc.Quote(context.Background(), tripID, actor(), domain.Options{GasType: "trimix"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRental_FrozenIntoSnapshotTotals(t *testing.T) {
	e := setupEnv(t)

	rental, err := e.rentals.AddRental(context.Background(), bookingID, diverID, wetsuitItemID, 1, actor())
	require.NoError(t, err)
	assert.True(t, rental.UnitCharge.Equal(dec("150.00")))
	assert.True(t, rental.UnitCost.Equal(dec("50.00")))

	// Repricing the rule later must not touch the frozen rental.
	require.NoError(t, e.db.Model(&priceruledomain.PriceRule{}).Where("id = ?", 504).Update("amount", dec("999.00")).Error)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)

	snap := parseSnapshot(t, booking.PriceSnapshot)
	require.Len(t, snap.Rentals, 1)
	assert.Equal(t, "150.00", snap.Rentals[0].UnitCharge.Amount)
	assert.True(t, booking.PriceAmount.Equal(dec("775.00")), "price = %s", booking.PriceAmount)
}

func TestRental_DuplicateRejected(t *testing.T) {
	e := setupEnv(t)

	_, err := e.rentals.AddRental(context.Background(), bookingID, diverID, wetsuitItemID, 1, actor())
	require.NoError(t, err)

	_, err = e.rentals.AddRental(context.Background(), bookingID, diverID, wetsuitItemID, 2, actor())
	assert.ErrorIs(t, err, domain.ErrDuplicateRental)
}

func TestRental_ParticipantMustMatchBooking(t *testing.T) {
	e := setupEnv(t)

	_, err := e.rentals.AddRental(context.Background(), bookingID, 21, wetsuitItemID, 1, actor())
	assert.ErrorIs(t, err, rentaldomain.ErrParticipantMismatch)

	_, err = e.rentals.AddRental(context.Background(), bookingID, diverID, wetsuitItemID, 0, actor())
	assert.ErrorIs(t, err, rentaldomain.ErrInvalidQuantity)
}

func TestValidateConfiguration_ReportsMissingPieces(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.db.Delete(&catalogdomain.Item{}, "id = ?", parkItemID).Error)
	require.NoError(t, e.db.Delete(&contractdomain.Contract{}, "id = ?", gasContractID).Error)

	problems, err := e.svc.ValidateConfiguration(context.Background(), tripID, e.clock.Now())
	require.NoError(t, err)
	require.NotEmpty(t, problems)

	joined := ""
	for _, p := range problems {
		joined += p + "\n"
		assert.Regexp(t, "^(MISSING|INVALID): ", p)
	}
	assert.Contains(t, joined, "Park Entry Fee")
	assert.Contains(t, joined, "gas fills")

	var logs int64
	require.NoError(t, e.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", auditdomain.ActionValidationFailed).Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}

func TestValidateConfiguration_CleanSetupIsQuiet(t *testing.T) {
	e := setupEnv(t)

	problems, err := e.svc.ValidateConfiguration(context.Background(), tripID, e.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestSnapshot_AuditCarriesHashAndTransaction(t *testing.T) {
	e := setupEnv(t)

	booking, err := e.svc.SnapshotBookingPricing(context.Background(), bookingID, actor(), domain.Options{})
	require.NoError(t, err)
	snap := parseSnapshot(t, booking.PriceSnapshot)

	var logRow auditdomain.AuditLog
	require.NoError(t, e.db.Where("action = ?", auditdomain.ActionSnapshotted).First(&logRow).Error)
	assert.Equal(t, snap.Metadata.OutputHash, logRow.Data["output_hash"])
	assert.NotEmpty(t, logRow.Data["transaction_id"])
}
