package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TUID is an opaque 64-bit identifier for a managed file. It is globally
// unique, content-independent, and never reused once assigned.
type TUID uint64

// TUIDNull is the reserved "no ID" sentinel.
const TUIDNull TUID = 0

// GenerateTUID returns a fresh random TUID, never TUIDNull.
func GenerateTUID() TUID {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic(fmt.Sprintf("tuid: entropy source failed: %v", err))
		}
		id := TUID(binary.BigEndian.Uint64(buf[:]))
		if id != TUIDNull {
			return id
		}
	}
}

// Hex renders the TUID in the canonical 0x-prefixed form used by the
// human-readable event export.
func (t TUID) Hex() string {
	return fmt.Sprintf("0x%016X", uint64(t))
}

func (t TUID) String() string {
	return t.Hex()
}

// ParseTUID accepts either the canonical hex form or a plain decimal value.
func ParseTUID(s string) (TUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TUIDNull, fmt.Errorf("empty TUID")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return TUIDNull, fmt.Errorf("invalid TUID %q: %w", s, err)
		}
		return TUID(v), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return TUIDNull, fmt.Errorf("invalid TUID %q: %w", s, err)
	}
	return TUID(v), nil
}

// MarshalJSON writes the hex form so archives stay diffable.
func (t TUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Hex())
}

func (t *TUID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := ParseTUID(s)
	if err != nil {
		return err
	}
	*t = id
	return nil
}
