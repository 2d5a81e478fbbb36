package models

import (
	"time"

	"github.com/google/uuid"
)

// Interaction kinds tracked by the behavioral ledger.
const (
	InteractionView      = "view"
	InteractionClick     = "click"
	InteractionAddToCart = "add_to_cart"
	InteractionWishlist  = "wishlist"
	InteractionPurchase  = "purchase"
)

func ValidInteractionType(t string) bool {
	switch t {
	case InteractionView, InteractionClick, InteractionAddToCart,
		InteractionWishlist, InteractionPurchase:
		return true
	}
	return false
}

// Actor keys interaction history: an authenticated user id or an anonymous
// session id. At most one is meaningful; personalization requires at least
// one.
type Actor struct {
	UserID    *int64  `json:"user_id,omitempty"`
	SessionID *string `json:"session_id,omitempty"`
}

// Empty reports whether the actor carries no usable identity.
func (a Actor) Empty() bool {
	return a.UserID == nil && (a.SessionID == nil || *a.SessionID == "")
}

// Interaction is one append-only ledger event. Events are immutable; they
// are only removed by cascade when the product or user is deleted.
type Interaction struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	SessionID *string   `json:"session_id,omitempty" db:"session_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Type      string    `json:"interaction_type" db:"interaction_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TrackInteractionRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Type      string  `json:"interaction_type" validate:"required,oneof=view click add_to_cart wishlist purchase"`
	SessionID *string `json:"session_id,omitempty"`
}

type TrackInteractionResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Interaction *Interaction `json:"interaction,omitempty"`
}
