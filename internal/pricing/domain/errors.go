package domain

import "errors"

var (
	// ErrConfiguration covers malformed or missing pricing setup:
	// bad contract terms, non-positive participant counts, unknown gas types.
	ErrConfiguration = errors.New("pricing_configuration_invalid")

	// ErrMissingVendorAgreement means no effective vendor contract matched
	// the required tag and scope at the pricing time.
	ErrMissingVendorAgreement = errors.New("missing_vendor_agreement")

	// ErrMissingCatalogItem means a required catalog item does not exist
	// or is inactive.
	ErrMissingCatalogItem = errors.New("missing_catalog_item")

	// ErrMissingPrice means the rule hierarchy produced no price for an item.
	ErrMissingPrice = errors.New("missing_price")

	// ErrSnapshotImmutable is returned when a booking already carries a
	// snapshot and force was not requested.
	ErrSnapshotImmutable = errors.New("snapshot_immutable")

	// ErrDuplicateRental is returned when the same item is rented twice
	// for one participant on one booking.
	ErrDuplicateRental = errors.New("duplicate_rental")

	// ErrValidationFailed aggregates configuration problems found by
	// ValidateConfiguration.
	ErrValidationFailed = errors.New("pricing_validation_failed")
)

// IsConfiguration reports whether err belongs to the configuration family:
// problems an operator fixes by amending contracts, catalog, or rules. In
// lenient mode these become warnings instead of failing the computation.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrMissingVendorAgreement) ||
		errors.Is(err, ErrMissingCatalogItem) ||
		errors.Is(err, ErrMissingPrice)
}
