// Package umid implements the 32-byte SMPTE UMID (Unique Material
// Identifier) used throughout MXF to identify packages.
package umid

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Size is the length in bytes of a UMID.
const Size = 32

// UMID is a 32-byte Unique Material Identifier. The zero value is the
// "undefined" UMID (all zero bytes), which is not a valid package
// identifier.
type UMID [Size]byte

// Zero is the undefined UMID.
var Zero UMID

// IsZero reports whether u is the undefined UMID.
func (u UMID) IsZero() bool {
	return u == Zero
}

// String renders u as unbroken hex, matching the convention used for
// other binary identifiers logged by this reader.
func (u UMID) String() string {
	return hex.EncodeToString(u[:])
}

// MaterialGenerationOffset is the length of the leading UMID prefix that
// SameMaterial compares; bytes from this offset on are treated as
// instance/generation bytes and ignored by that comparison.
const MaterialGenerationOffset = 16

// SameMaterial reports whether a and b share the same material number,
// i.e. differ at most in their instance/generation bytes. Used when
// resolving a SourceClip's SourcePackageID against candidate packages
// that may carry regenerated instance numbers.
func SameMaterial(a, b UMID) bool {
	return bytes.Equal(a[:MaterialGenerationOffset], b[:MaterialGenerationOffset])
}

// Parse decodes a UMID from its 32-byte hex representation.
func Parse(s string) (UMID, error) {
	var u UMID
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, fmt.Errorf("umid: %w", err)
	}
	if len(b) != Size {
		return u, fmt.Errorf("umid: want %d bytes, got %d", Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// FromBytes copies b into a new UMID. It fails if b is not exactly Size
// bytes long, which indicates a malformed source or material package
// UMID property in the header metadata.
func FromBytes(b []byte) (UMID, error) {
	var u UMID
	if len(b) != Size {
		return u, fmt.Errorf("umid: want %d bytes, got %d", Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}
