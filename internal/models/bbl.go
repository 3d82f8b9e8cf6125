package models

import (
	"fmt"
	"strings"
)

// BBL format: 1 digit borough + 5 digit block + 4 digit lot.
const (
	bblLength      = 10
	blockKeyStart  = 1
	blockKeyEnd    = 6
)

// NormalizeBBL builds a canonical BBL string from its components,
// zero-padding block and lot to their fixed widths.
func NormalizeBBL(borough, block, lot int) string {
	return fmt.Sprintf("%d%05d%04d", borough, block, lot)
}

// CleanBBL strips the decimal suffix some upstream datasets attach to
// BBL values (e.g. "1006980037.00000000" -> "1006980037").
func CleanBBL(raw string) string {
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// BlockKey extracts the 5-digit block substring of a BBL (excluding the
// leading borough digit). Returns an empty string for malformed BBLs.
func BlockKey(bbl string) string {
	if len(bbl) < blockKeyEnd {
		return ""
	}
	return bbl[blockKeyStart:blockKeyEnd]
}

// ValidBBL reports whether a string is a well-formed 10-digit BBL.
func ValidBBL(bbl string) bool {
	if len(bbl) != bblLength {
		return false
	}
	for i := 0; i < len(bbl); i++ {
		if bbl[i] < '0' || bbl[i] > '9' {
			return false
		}
	}
	return true
}
