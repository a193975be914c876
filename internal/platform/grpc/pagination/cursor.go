package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Direction says which side of the cursor the next page lies on.
type Direction string

const (
	// DirectionForward pages through keys greater than the cursor.
	DirectionForward Direction = "fwd"
	// DirectionBackward pages through keys less than the cursor.
	DirectionBackward Direction = "bwd"
)

// Cursor is the decoded form of a page token. At and ID are the sort key
// of the last item served: a timestamp in Unix milliseconds and the row id
// that breaks ties.
type Cursor struct {
	At         int64     `json:"at"`
	ID         int64     `json:"id"`
	Dir        Direction `json:"dir"`
	FilterHash string    `json:"filter_hash,omitempty"`
	OrderHash  string    `json:"order_hash,omitempty"`
}

// NextPageCursor returns the cursor that continues after the item keyed
// (lastAt, lastID). Descending listings continue backward.
func NextPageCursor(lastAt, lastID int64, descending bool, filter, orderBy string) Cursor {
	dir := DirectionForward
	if descending {
		dir = DirectionBackward
	}
	return Cursor{
		At:         lastAt,
		ID:         lastID,
		Dir:        dir,
		FilterHash: hash(filter),
		OrderHash:  hash(orderBy),
	}
}

// EncodeCursor returns c as an opaque URL-safe token.
func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if c.Dir != DirectionForward && c.Dir != DirectionBackward {
		return Cursor{}, fmt.Errorf("invalid cursor direction: %q", c.Dir)
	}
	return c, nil
}

// Descending reports whether c continues a descending listing.
func (c Cursor) Descending() bool {
	return c.Dir == DirectionBackward
}

// ValidateCursor rejects a cursor minted for a different filter or order.
func ValidateCursor(c Cursor, filter, orderBy string) error {
	if c.FilterHash != hash(filter) {
		return fmt.Errorf("filter changed since cursor was created")
	}
	if c.OrderHash != hash(orderBy) {
		return fmt.Errorf("order_by changed since cursor was created")
	}
	return nil
}

func hash(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
