package oid

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ID is an opaque 24-hex-character object identifier, compatible with the
// identifiers issued by the legacy document store.
type ID string

// Nil is the zero identifier.
const Nil ID = ""

const encodedLen = 24

// New generates a fresh identifier: a 4-byte unix timestamp followed by
// 8 random bytes, hex encoded.
func New() ID {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(raw[4:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("oid: reading random bytes: %v", err))
	}
	return ID(hex.EncodeToString(raw[:]))
}

// Parse validates raw as a 24-hex-character identifier.
func Parse(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != encodedLen {
		return Nil, fmt.Errorf("identifier must be %d hex characters, got %d", encodedLen, len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return Nil, fmt.Errorf("identifier is not hexadecimal: %w", err)
	}
	return ID(strings.ToLower(raw)), nil
}

// IsValid reports whether the identifier has the canonical shape.
func (id ID) IsValid() bool {
	_, err := Parse(string(id))
	return err == nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Value implements driver.Valuer so gorm stores the id as text.
func (id ID) Value() (driver.Value, error) {
	if id == Nil {
		return nil, nil
	}
	return string(id), nil
}

// Scan implements sql.Scanner.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = Nil
		return nil
	case string:
		*id = ID(v)
		return nil
	case []byte:
		*id = ID(v)
		return nil
	default:
		return fmt.Errorf("oid: cannot scan %T into ID", src)
	}
}
