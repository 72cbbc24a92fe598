package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ItemKind groups catalog items by how they price.
type ItemKind string

const (
	ItemKindComponent ItemKind = "component" // guide fee, park fee
	ItemKindEquipment ItemKind = "equipment" // rental gear
)

// Item is a sellable catalog entry. Pricing lives in price rules, not
// on the item itself.
type Item struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	DisplayName string       `gorm:"type:text;not null;uniqueIndex:ux_catalog_items_display_name"`
	Kind        ItemKind     `gorm:"type:text;not null;default:'component'"`
	Active      bool         `gorm:"not null;default:true"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Item) TableName() string { return "catalog_items" }
