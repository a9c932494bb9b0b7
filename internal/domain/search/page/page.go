// Package page slices ranked results with an opaque offset cursor.
package page

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Page size defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const cursorPrefix = "o:"

// Request is a validated page position.
type Request struct {
	offset int
	limit  int
}

// New validates a cursor and clamps the limit to [1, maxLimit].
// A limit <= 0 uses defLimit. Non-positive defaults fall back to the package defaults.
func New(cursor string, limit, defLimit, maxLimit int) (Request, error) {
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit <= 0 {
		limit = defLimit
	}
	limit = min(limit, maxLimit)

	offset, err := DecodeCursor(cursor)
	if err != nil {
		return Request{}, err
	}
	return Request{offset: offset, limit: limit}, nil
}

// Offset returns the index of the first item.
func (r Request) Offset() int { return r.offset }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// Slice returns the requested window of items and the cursor of the next page,
// or "" when there is none.
func Slice[T any](items []T, r Request) ([]T, string) {
	if r.offset >= len(items) {
		return []T{}, ""
	}
	end := min(r.offset+r.limit, len(items))
	next := ""
	if end < len(items) {
		next = EncodeCursor(end)
	}
	return items[r.offset:end], next
}

// EncodeCursor returns the opaque cursor for offset.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor parses a cursor produced by EncodeCursor. An empty cursor is offset 0.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor")
	}
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor")
	}
	return offset, nil
}
