package content

import (
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/uptrace/bun"
)

// Item maps a short opaque id to a target locator (URL). The locator is
// mutable only by delete and recreate; items carry no expiry.
type Item struct {
	bun.BaseModel `bun:"table:content"`

	ID      string `bun:"id,pk" json:"id"`
	Locator string `bun:"locator" json:"locator"`
}

// NewID returns a fresh link token: base58 over the first 8 bytes of a random
// UUID, about 11 characters and well over 48 bits of randomness. Tokens are
// opaque; they carry no structure beyond uniqueness.
func NewID() string {
	u := uuid.New()
	return base58.Encode(u[:8])
}
