package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalHash_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"alpha": 1, "beta": map[string]any{"x": "1", "y": "2"}}
	b := map[string]any{"beta": map[string]any{"y": "2", "x": "1"}, "alpha": 1}

	ha, err := CanonicalHash(a)
	require.NoError(t, err)
	hb, err := CanonicalHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.True(t, strings.HasPrefix(ha, "sha256:"))
	assert.Len(t, ha, len("sha256:")+64)
}

func TestCanonicalHash_ValueSensitive(t *testing.T) {
	ha, err := CanonicalHash(map[string]any{"amount": "100.00"})
	require.NoError(t, err)
	hb, err := CanonicalHash(map[string]any{"amount": "100.01"})
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func testComputation() domain.Computation {
	mxn := func(s string) money.Money {
		d, _ := decimal.NewFromString(s)
		return money.New(d, "MXN")
	}
	return domain.Computation{
		Lines: []domain.Line{
			{
				Key:        domain.LineKeyBoatShare,
				Label:      "Boat charter share",
				Allocation: domain.AllocationShared,
				Cost:       mxn("1800.00"),
				Charge:     mxn("2400.00"),
				ContractID: 101,
			},
			{
				Key:        domain.LineKeyParkBracelet,
				Label:      "Park Entry Fee",
				Allocation: domain.AllocationPerParticipant,
				Cost:       mxn("200.00"),
				Charge:     mxn("350.00"),
				RuleID:     77,
				ItemID:     12,
			},
		},
		Totals: domain.Totals{
			Currency:                  "MXN",
			SharedCost:                dec("1800.00"),
			SharedCharge:              dec("2400.00"),
			SharedCostPerHead:         dec("450.00"),
			SharedChargePerHead:       dec("600.00"),
			PerParticipantCost:        dec("200.00"),
			PerParticipantCharge:      dec("350.00"),
			TotalCostPerParticipant:   dec("650.00"),
			TotalChargePerParticipant: dec("950.00"),
			Margin:                    dec("300.00"),
		},
		ParticipantCount: 4,
		GasType:          "air",
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testInputs() InputsSnapshot {
	return InputsSnapshot{
		TripID:           "1",
		SiteID:           "2",
		ShopID:           "3",
		ParticipantCount: 4,
		GasType:          "air",
		DivesPerTrip:     2,
		AsOf:             "2026-08-01T09:00:00Z",
	}
}

func TestBuild_Metadata(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC))
	b := NewBuilder(fc)

	snap, err := b.Build(testInputs(), testComputation())
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, snap.Metadata.SchemaVersion)
	assert.Equal(t, "diveops-pricing", snap.Metadata.Tool)
	assert.Equal(t, "2026-08-01T09:30:00Z", snap.Metadata.GeneratedAt)
	assert.True(t, strings.HasPrefix(snap.Metadata.InputHash, "sha256:"))
	assert.True(t, strings.HasPrefix(snap.Metadata.OutputHash, "sha256:"))
	assert.NotEqual(t, snap.Metadata.InputHash, snap.Metadata.OutputHash)
}

func TestBuild_DeterministicHashes(t *testing.T) {
	b := NewBuilder(clock.NewFakeClock(time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)))

	first, err := b.Build(testInputs(), testComputation())
	require.NoError(t, err)
	second, err := b.Build(testInputs(), testComputation())
	require.NoError(t, err)

	assert.Equal(t, first.Metadata.InputHash, second.Metadata.InputHash)
	assert.Equal(t, first.Metadata.OutputHash, second.Metadata.OutputHash)
}

func TestBuild_OutputHashIgnoresClock(t *testing.T) {
	early := NewBuilder(clock.NewFakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)))
	late := NewBuilder(clock.NewFakeClock(time.Date(2026, 8, 2, 17, 0, 0, 0, time.UTC)))

	a, err := early.Build(testInputs(), testComputation())
	require.NoError(t, err)
	b, err := late.Build(testInputs(), testComputation())
	require.NoError(t, err)

	assert.Equal(t, a.Metadata.OutputHash, b.Metadata.OutputHash)
	assert.NotEqual(t, a.Metadata.GeneratedAt, b.Metadata.GeneratedAt)
}

func TestBuild_LineRefs(t *testing.T) {
	b := NewBuilder(clock.NewFakeClock(time.Now()))

	snap, err := b.Build(testInputs(), testComputation())
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)

	assert.Equal(t, map[string]string{"vendor_contract_id": "101"}, snap.Lines[0].Refs)
	assert.Equal(t, map[string]string{"price_rule_id": "77", "item_id": "12"}, snap.Lines[1].Refs)
	assert.Equal(t, "1800.00", snap.Lines[0].Cost.Amount)
	assert.Equal(t, "MXN", snap.Lines[0].Cost.Currency)
}

func TestBuild_LineMetaMergedIntoRefs(t *testing.T) {
	b := NewBuilder(clock.NewFakeClock(time.Now()))

	comp := testComputation()
	comp.Lines[1].Meta = map[string]string{"gas_type": "ean32", "o2_fraction": "0.32"}

	snap, err := b.Build(testInputs(), comp)
	require.NoError(t, err)

	assert.Equal(t, "ean32", snap.Lines[1].Refs["gas_type"])
	assert.Equal(t, "0.32", snap.Lines[1].Refs["o2_fraction"])
	assert.Equal(t, "77", snap.Lines[1].Refs["price_rule_id"])
}

func TestExtractSummary_RoundTrip(t *testing.T) {
	b := NewBuilder(clock.NewFakeClock(time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)))

	snap, err := b.Build(testInputs(), testComputation())
	require.NoError(t, err)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	sum, err := ExtractSummary(raw)
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, sum.SchemaVersion)
	assert.Equal(t, snap.Metadata.OutputHash, sum.OutputHash)
	assert.Equal(t, "MXN", sum.Currency)
	assert.True(t, sum.TotalChargePerParticipant.Equal(dec("950.00")))
	assert.True(t, sum.TotalCostPerParticipant.Equal(dec("650.00")))
	assert.True(t, sum.MarginPerParticipant.Equal(dec("300.00")))
	assert.Equal(t, 4, sum.ParticipantCount)
	assert.Equal(t, 2, sum.LineCount)
	assert.Equal(t, 0, sum.RentalCount)
}

func TestExtractSummary_RejectsGarbage(t *testing.T) {
	_, err := ExtractSummary(nil)
	assert.Error(t, err)

	_, err = ExtractSummary([]byte("{not json"))
	assert.Error(t, err)

	_, err = ExtractSummary([]byte(`{"totals":{"total_charge_per_participant":"abc"}}`))
	assert.Error(t, err)
}
