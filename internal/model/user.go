package model

import (
	"fmt"
	"time"
)

// User represents an authentication user. Sellers own inventory and listings
// directly; admins moderate; official accounts may manage official inventory.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleOfficial = "official"
	RoleSeller   = "seller"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    3,
		RoleOfficial: 2,
		RoleSeller:   1,
	}
	return levels[role] >= levels[minimum]
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// Actor is the capability view of a caller, shared by every permission check
// on inventory and listing mutations.
type Actor struct {
	ID       int64
	Admin    bool
	Official bool
}

// ActorForRole builds an Actor from a user id and role string.
func ActorForRole(id int64, role string) Actor {
	return Actor{
		ID:       id,
		Admin:    role == RoleAdmin,
		Official: role == RoleOfficial,
	}
}

// CanManageItem reports whether the actor may mutate an inventory item:
// the owner, an admin, or an official account for official items.
func (a Actor) CanManageItem(item *InventoryItem) bool {
	return a.Admin || item.OwnerID == a.ID || (a.Official && item.IsOfficial)
}

// CanManageListing reports whether the actor may mutate a listing.
func (a Actor) CanManageListing(l *Listing) bool {
	return a.Admin || l.OwnerID == a.ID
}
