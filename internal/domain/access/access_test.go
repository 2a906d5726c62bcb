package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/local-market/internal/domain/apperr"
)

var (
	admin    = Actor{UserID: "u-admin", Role: RoleAdmin}
	alice    = Actor{UserID: "u-alice", Role: RoleCustomer}
	bob      = Actor{UserID: "u-bob", Role: RoleCustomer}
	catalogs = []Kind{KindBanner, KindCategory, KindProduct, KindImage}
)

func TestCanPerform_Catalog(t *testing.T) {
	for _, kind := range catalogs {
		t.Run(string(kind), func(t *testing.T) {
			for _, actor := range []Actor{Anonymous, alice, admin} {
				assert.True(t, CanPerform(actor, ActionList, Of(kind)))
				assert.True(t, CanPerform(actor, ActionRetrieve, Of(kind)))
			}
			for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
				assert.False(t, CanPerform(Anonymous, action, Of(kind)))
				assert.False(t, CanPerform(alice, action, Of(kind)))
				assert.True(t, CanPerform(admin, action, Of(kind)))
			}
		})
	}
}

func TestCanPerform_Discounts(t *testing.T) {
	assert.False(t, CanPerform(Anonymous, ActionList, Of(KindDiscount)))
	assert.False(t, CanPerform(alice, ActionRetrieve, Of(KindDiscount)))
	assert.True(t, CanPerform(admin, ActionCreate, Of(KindDiscount)))
}

func TestCanPerform_OwnerScoped(t *testing.T) {
	for _, kind := range []Kind{KindCart, KindWishlist, KindReview, KindOrder} {
		t.Run(string(kind), func(t *testing.T) {
			assert.True(t, CanPerform(alice, ActionList, OwnedBy(kind, alice.UserID)))
			assert.True(t, CanPerform(alice, ActionCreate, OwnedBy(kind, alice.UserID)))
			assert.False(t, CanPerform(alice, ActionRetrieve, OwnedBy(kind, bob.UserID)))
			assert.False(t, CanPerform(alice, ActionList, Of(kind)), "listing every owner is admin-only")
			assert.False(t, CanPerform(Anonymous, ActionList, OwnedBy(kind, "")))
			assert.True(t, CanPerform(admin, ActionRetrieve, OwnedBy(kind, bob.UserID)))
		})
	}
}

func TestCanPerform_OrderStatus(t *testing.T) {
	own := OwnedBy(KindOrder, alice.UserID)
	other := OwnedBy(KindOrder, bob.UserID)

	assert.False(t, CanPerform(alice, ActionSetStatus, own))
	assert.False(t, CanPerform(alice, ActionSetStatus, other))
	assert.False(t, CanPerform(alice, ActionDelete, own))
	assert.True(t, CanPerform(admin, ActionSetStatus, other))
}

func TestCanPerform_Users(t *testing.T) {
	assert.True(t, CanPerform(alice, ActionRetrieve, OwnedBy(KindUser, alice.UserID)))
	assert.True(t, CanPerform(alice, ActionUpdate, OwnedBy(KindUser, alice.UserID)))
	assert.True(t, CanPerform(alice, ActionDelete, OwnedBy(KindUser, alice.UserID)))
	assert.False(t, CanPerform(alice, ActionDelete, OwnedBy(KindUser, bob.UserID)))
	assert.False(t, CanPerform(Anonymous, ActionUpdate, OwnedBy(KindUser, "")))
	assert.False(t, CanPerform(alice, ActionList, Of(KindUser)))
	assert.True(t, CanPerform(admin, ActionList, Of(KindUser)))
}

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize(admin, ActionCreate, Of(KindProduct)))

	err := Authorize(Anonymous, ActionCreate, Of(KindProduct))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Contains(t, err.Error(), "create on product")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
