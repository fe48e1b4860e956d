// Package snapshot carries CRDT document state across the persistence boundary
// and manages the per-node document lifecycle.
package snapshot

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidEncoding is returned when a text-form snapshot is not valid base64.
var ErrInvalidEncoding = errors.New("snapshot: invalid encoding")

// Encode returns the text-safe form of a binary snapshot.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode is the exact inverse of Encode.
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return data, nil
}

// EncodeOptional encodes a possibly absent snapshot; absent maps to nil.
func EncodeOptional(data []byte) *string {
	if len(data) == 0 {
		return nil
	}
	s := Encode(data)
	return &s
}
