// Package pagination implements keyset pagination over (created_at, id),
// newest first.
package pagination

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Cursor is the sort key of the first row of the next page.
type Cursor struct {
	CreatedAt time.Time
	ID        uint64
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatUint(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token yields nil.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, domain.ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	rowID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: rowID}, nil
}

// NormalizeLimit clamps a requested page size into [1, max].
func NormalizeLimit(limit, def, max int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	if max <= 0 {
		max = MaxLimit
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Page is one sliced page plus the cursor of the next one.
type Page[T any] struct {
	Items      []T
	NextCursor *Cursor
}

// Slice turns the limit+1 rows fetched by a query into a page. When the
// extra row is present its key becomes the next cursor and it is dropped.
func Slice[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	next := key(rows[limit])
	return Page[T]{Items: rows[:limit], NextCursor: &next}
}

// Token returns the encoded next cursor or "" on the last page.
func (p Page[T]) Token() string {
	if p.NextCursor == nil {
		return ""
	}
	return p.NextCursor.Encode()
}
