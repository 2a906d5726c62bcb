// Package access implements the authorization policy as a pure function of
// the caller's role, the requested action and the resource owner.
package access

import (
	"fmt"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// Role is the capability level of a caller.
type Role string

const (
	// RoleAnonymous is the role of a caller without credentials.
	RoleAnonymous Role = ""
	// RoleCustomer may read the catalog and manage resources bound to itself.
	RoleCustomer Role = "customer"
	// RoleAdmin has full read/write access, including order status changes.
	RoleAdmin Role = "admin"
)

// ParseRole validates a stored role value.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleAdmin:
		return r, nil
	default:
		return RoleAnonymous, apperr.Validationf("unknown role %q", s)
	}
}

// Actor is the resolved identity of the current caller.
type Actor struct {
	UserID string
	Role   Role
}

// Anonymous is the actor used when a request carries no credentials.
var Anonymous = Actor{}

// IsAuthenticated reports whether the actor is bound to a user.
func (a Actor) IsAuthenticated() bool { return a.UserID != "" }

// IsAdmin reports whether the actor has administrator capability.
func (a Actor) IsAdmin() bool { return a.IsAuthenticated() && a.Role == RoleAdmin }

// Owns reports whether ownerID identifies the actor.
func (a Actor) Owns(ownerID string) bool {
	return a.IsAuthenticated() && ownerID == a.UserID
}

// Action is an operation requested on a resource.
type Action string

const (
	ActionList      Action = "list"
	ActionRetrieve  Action = "retrieve"
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionSetStatus Action = "set_status"
)

// ReadOnly reports whether the action never mutates state.
func (a Action) ReadOnly() bool {
	return a == ActionList || a == ActionRetrieve
}

// Kind names a resource type.
type Kind string

const (
	KindBanner   Kind = "banner"
	KindCategory Kind = "category"
	KindProduct  Kind = "product"
	KindImage    Kind = "image"
	KindDiscount Kind = "discount"
	KindUser     Kind = "user"
	KindCart     Kind = "cart"
	KindOrder    Kind = "order"
	KindReview   Kind = "review"
	KindWishlist Kind = "wishlist"
)

// Resource identifies what an action targets. OwnerID is empty for catalog
// resources and for collection-wide requests that span every owner.
type Resource struct {
	Kind    Kind
	OwnerID string
}

// Of is shorthand for a resource with no owner.
func Of(kind Kind) Resource { return Resource{Kind: kind} }

// OwnedBy is shorthand for a resource bound to ownerID.
func OwnedBy(kind Kind, ownerID string) Resource {
	return Resource{Kind: kind, OwnerID: ownerID}
}

// CanPerform decides whether actor may perform action on res.
func CanPerform(actor Actor, action Action, res Resource) bool {
	if actor.IsAdmin() {
		return true
	}

	switch res.Kind {
	case KindBanner, KindCategory, KindProduct, KindImage:
		return action.ReadOnly()
	case KindUser:
		return action != ActionList && action != ActionCreate && actor.Owns(res.OwnerID)
	case KindCart, KindWishlist, KindReview:
		return actor.Owns(res.OwnerID)
	case KindOrder:
		if action == ActionSetStatus || action == ActionDelete || action == ActionUpdate {
			return false
		}
		return actor.Owns(res.OwnerID)
	default:
		// Discounts and unknown kinds are admin-only.
		return false
	}
}

// Authorize returns a KindForbidden error when CanPerform denies the request.
func Authorize(actor Actor, action Action, res Resource) error {
	if CanPerform(actor, action, res) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("%s on %s is not permitted", action, res.Kind))
}
