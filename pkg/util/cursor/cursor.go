// Package cursor encodes store pagination keys as opaque, URL-safe tokens.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrInvalid is returned for tokens that were not produced by Encode.
var ErrInvalid = errors.New("invalid cursor")

// Key is the last-seen position of a listing.
type Key map[string]any

// Encode returns "" for an empty key, meaning "no further pages".
func Encode(key Key) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. An empty token decodes to a nil key. Numbers are
// kept as json.Number so that integer keys survive the round trip.
func Decode(token string) (Key, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalid
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var key Key
	if err := decoder.Decode(&key); err != nil || len(key) == 0 {
		return nil, ErrInvalid
	}
	return key, nil
}

// String returns the string at name, or "" when absent or not a string.
func (k Key) String(name string) string {
	value, _ := k[name].(string)
	return value
}
