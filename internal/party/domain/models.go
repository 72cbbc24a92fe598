package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrganizationKind distinguishes dive shops from their vendors.
type OrganizationKind string

const (
	OrganizationKindShop   OrganizationKind = "shop"
	OrganizationKindVendor OrganizationKind = "vendor"
)

// Organization is a dive shop or a vendor counterparty.
type Organization struct {
	ID        snowflake.ID     `gorm:"primaryKey"`
	Name      string           `gorm:"type:text;not null"`
	Kind      OrganizationKind `gorm:"type:text;not null;default:'shop'"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Organization) TableName() string { return "organizations" }

// Person is a participant (diver) or staff member.
type Person struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	GivenName  string       `gorm:"type:text;not null"`
	FamilyName string       `gorm:"type:text"`
	Email      *string      `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Person) TableName() string { return "people" }

// ShortName returns the display form used in ledger descriptions.
func (p Person) ShortName() string {
	if p.FamilyName == "" {
		return p.GivenName
	}
	return p.GivenName + " " + p.FamilyName
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrPersonNotFound       = errors.New("person_not_found")
)
