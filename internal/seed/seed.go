// Package seed loads a small demo dataset so a fresh environment can
// serve quotes immediately. It is a no-op unless SEED_DEMO_DATA is set,
// and idempotent when it runs.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	catalogdomain "github.com/reefward/diveops/internal/catalog/domain"
	"github.com/reefward/diveops/internal/config"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	partydomain "github.com/reefward/diveops/internal/party/domain"
	priceruledomain "github.com/reefward/diveops/internal/pricerule/domain"
	"github.com/reefward/diveops/internal/scope"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Run(cfg config.Config, holder *config.PricingConfigHolder, gdb *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if !cfg.SeedDemoData {
		return nil
	}

	shop := partydomain.Organization{ID: node.Generate(), Name: "Reefward Diving Cozumel", Kind: partydomain.OrganizationKindShop}
	boatVendor := partydomain.Organization{ID: node.Generate(), Name: "Caribe Charters", Kind: partydomain.OrganizationKindVendor}
	gasVendor := partydomain.Organization{ID: node.Generate(), Name: "Nitrox Supply Co", Kind: partydomain.OrganizationKindVendor}
	site := bookingdomain.Site{ID: node.Generate(), Name: "Palancar Reef"}

	return gdb.Transaction(func(tx *gorm.DB) error {
		var shops int64
		if err := tx.Model(&partydomain.Organization{}).Where("kind = ?", partydomain.OrganizationKindShop).Count(&shops).Error; err != nil {
			return err
		}
		if shops > 0 {
			log.Info("demo data already present, skipping seed")
			return nil
		}

		create := func(value any) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
		}

		for _, v := range []any{&shop, &boatVendor, &gasVendor, &site} {
			if err := create(v); err != nil {
				return err
			}
		}

		trip := bookingdomain.Trip{
			ID:           node.Generate(),
			ShopID:       shop.ID,
			SiteID:       site.ID,
			DepartsAt:    time.Now().UTC().Add(72 * time.Hour),
			DivesPerTrip: 2,
		}
		if err := create(&trip); err != nil {
			return err
		}

		from := time.Now().UTC().Add(-24 * time.Hour)
		contracts := []contractdomain.Contract{
			{
				ID: node.Generate(), Tag: contractdomain.TagVendorPricing,
				ScopeKind: contractdomain.ScopeKindSite, ScopeRef: site.ID,
				CounterpartyID: boatVendor.ID, ValidFrom: from,
				Terms: datatypes.JSONMap{
					"boat_charter": map[string]any{
						"base_cost": "1800", "included_count": 4,
						"overage_per_unit": "150", "currency": "MXN",
					},
				},
			},
			{
				ID: node.Generate(), Tag: contractdomain.TagGasPricing,
				ScopeKind: contractdomain.ScopeKindOrganization, ScopeRef: shop.ID,
				CounterpartyID: gasVendor.ID, ValidFrom: from,
				Terms: datatypes.JSONMap{
					"gas_fills": map[string]any{
						"air":   map[string]any{"cost": "45.00", "charge": "80.00", "currency": "MXN"},
						"ean32": map[string]any{"cost": "90.00", "charge": "150.00", "currency": "MXN"},
						"ean36": map[string]any{"cost": "110.00", "charge": "175.00", "currency": "MXN"},
					},
				},
			},
		}
		if err := create(&contracts); err != nil {
			return err
		}

		pricing := holder.Get()
		items := []catalogdomain.Item{
			{ID: node.Generate(), DisplayName: pricing.GuideFeeItemName, Kind: catalogdomain.ItemKindComponent, Active: true},
			{ID: node.Generate(), DisplayName: pricing.ParkFeeItemName, Kind: catalogdomain.ItemKindComponent, Active: true},
			{ID: node.Generate(), DisplayName: "Wetsuit", Kind: catalogdomain.ItemKindEquipment, Active: true},
			{ID: node.Generate(), DisplayName: "Dive Computer", Kind: catalogdomain.ItemKindEquipment, Active: true},
		}
		if err := create(&items); err != nil {
			return err
		}

		charge := func(s string) decimal.Decimal { d, _ := decimal.NewFromString(s); return d }
		cost := func(s string) *decimal.Decimal { d := charge(s); return &d }
		rules := []priceruledomain.PriceRule{
			{ID: node.Generate(), ItemID: items[0].ID, ScopeType: scope.TypeGlobal, Amount: charge("350.00"), Currency: "MXN", CostAmount: cost("200.00"), ValidFrom: from},
			{ID: node.Generate(), ItemID: items[1].ID, ScopeType: scope.TypeGlobal, Amount: charge("100.00"), Currency: "MXN", CostAmount: cost("60.00"), ValidFrom: from},
			{ID: node.Generate(), ItemID: items[2].ID, ScopeType: scope.TypeGlobal, Amount: charge("150.00"), Currency: "MXN", CostAmount: cost("50.00"), ValidFrom: from},
			{ID: node.Generate(), ItemID: items[3].ID, ScopeType: scope.TypeGlobal, Amount: charge("250.00"), Currency: "MXN", CostAmount: cost("80.00"), ValidFrom: from},
		}
		if err := create(&rules); err != nil {
			return err
		}

		log.Info("demo data seeded",
			zap.String("shop", shop.Name),
			zap.Int64("trip_id", int64(trip.ID)),
		)
		return nil
	})
}
