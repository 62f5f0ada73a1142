package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Cursor is the opaque keyset position handed to clients.
// CreatedUnix (in micros) + ID establish a stable order for rows sharing a timestamp.
type Cursor struct {
	CreatedUnix int64 `json:"created_unix"`
	ID          int64 `json:"id"`
}

// Time returns the cursor timestamp.
func (c Cursor) Time() time.Time {
	return time.UnixMicro(c.CreatedUnix).UTC()
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.CreatedUnix == 0 && c.ID == 0
}

// FromRow builds the cursor for the row after which the next page starts.
func FromRow(createdAt time.Time, id int64) Cursor {
	return Cursor{CreatedUnix: createdAt.UnixMicro(), ID: id}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	return c, nil
}

// ClampLimit applies the default and the upper bound to a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
