package models

import (
	"math"
	"time"
)

// Sale represents a recorded property transfer. Sales reference properties
// by BBL but are not guaranteed to resolve; orphan sales exist and must be
// filtered out by join-dependent operations.
type Sale struct {
	ID            int64      `json:"id"`
	BBL           string     `json:"bbl"`
	SalePrice     *int       `json:"sale_price,omitempty"`
	SaleDate      *time.Time `json:"sale_date,omitempty"`
	GrossSF       *int       `json:"gross_sf,omitempty"`
	PricePerSF    *float64   `json:"price_per_sf,omitempty"`
	BuildingClass *string    `json:"building_class,omitempty"`
}

// DerivePricePerSF returns the stored price-per-square-foot when present,
// otherwise derives it from sale price and gross square footage. Returns
// nil when either operand is missing or non-positive.
func (s *Sale) DerivePricePerSF() *float64 {
	if s.PricePerSF != nil && *s.PricePerSF > 0 {
		return s.PricePerSF
	}
	if s.SalePrice == nil || s.GrossSF == nil || *s.SalePrice <= 0 || *s.GrossSF <= 0 {
		return nil
	}
	psf := math.Round(float64(*s.SalePrice) / float64(*s.GrossSF))
	return &psf
}

// SaleWithProperty is a sale joined to its referenced property. The sale
// columns stay flat on the wire with the property nested beside them.
// Property is nil for orphan sales whose BBL does not resolve.
type SaleWithProperty struct {
	Sale
	Property *Property `json:"property,omitempty"`
}

// PricePerSFFrom derives price-per-square-foot against an arbitrary floor
// area, used when the sale's own gross footage is absent but the joined
// property's building area is known.
func (s *Sale) PricePerSFFrom(bldgArea int) *float64 {
	if s.PricePerSF != nil && *s.PricePerSF > 0 {
		return s.PricePerSF
	}
	if s.SalePrice == nil || *s.SalePrice <= 0 || bldgArea <= 0 {
		return nil
	}
	psf := math.Round(float64(*s.SalePrice) / float64(bldgArea))
	return &psf
}
