// Package scope models the pricing scope hierarchy as a tagged value
// with a total order, rather than four nullable reference columns.
package scope

import "github.com/bwmarrin/snowflake"

type Type string

const (
	TypeGlobal       Type = "global"
	TypeOrganization Type = "organization"
	TypeParty        Type = "party"
	TypeAgreement    Type = "agreement"
)

// Rank orders scopes by specificity: agreement > party > organization >
// global. Used for resolution tie-breaking.
func (t Type) Rank() int {
	switch t {
	case TypeAgreement:
		return 3
	case TypeParty:
		return 2
	case TypeOrganization:
		return 1
	default:
		return 0
	}
}

// Scope pairs a scope type with the record it references. Ref is zero
// for the global scope.
type Scope struct {
	Type Type
	Ref  snowflake.ID
}

func Global() Scope                         { return Scope{Type: TypeGlobal} }
func ForOrganization(id snowflake.ID) Scope { return Scope{Type: TypeOrganization, Ref: id} }
func ForParty(id snowflake.ID) Scope        { return Scope{Type: TypeParty, Ref: id} }
func ForAgreement(id snowflake.ID) Scope    { return Scope{Type: TypeAgreement, Ref: id} }

// Hints carries the optional scope references a caller knows about.
// Zero IDs mean "no hint at that level".
type Hints struct {
	OrganizationID snowflake.ID
	PartyID        snowflake.ID
	AgreementID    snowflake.ID
}
