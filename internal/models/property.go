package models

import (
	"strings"
	"time"
)

// Property represents a PLUTO tax lot record.
// All nullable fields use pointers to distinguish between zero values and NULL.
type Property struct {
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	BBL           string     `json:"bbl"`
	Address       *string    `json:"address,omitempty"`
	Borough       *int       `json:"borough,omitempty"`
	Block         *int       `json:"block,omitempty"`
	Lot           *int       `json:"lot,omitempty"`
	Zipcode       *string    `json:"zipcode,omitempty"`
	BldgClass     *string    `json:"bldgclass,omitempty"`
	BldgClassDesc *string    `json:"bldgclassDesc,omitempty"`
	OwnerName     *string    `json:"ownername,omitempty"`
	LotArea       *int       `json:"lotarea,omitempty"`
	BldgArea      *int       `json:"bldgarea,omitempty"`
	NumFloors     *float64   `json:"numfloors,omitempty"`
	YearBuilt     *int       `json:"yearbuilt,omitempty"`
	ZoneDist      *string    `json:"zonedist1,omitempty"`
	BuiltFAR      *float64   `json:"builtfar,omitempty"`
	ResidFAR      *float64   `json:"residfar,omitempty"`
	CommFAR       *float64   `json:"commfar,omitempty"`
	FacilFAR      *float64   `json:"facilfar,omitempty"`
	FARGap        *float64   `json:"far_gap,omitempty"`
	AssessedTotal *int       `json:"assesstot,omitempty"`
	LastSaleDate  *time.Time `json:"last_sale_date,omitempty"`
	LastSalePrice *int       `json:"last_sale_price,omitempty"`
	Lat           *float64   `json:"lat,omitempty"`
	Lng           *float64   `json:"lng,omitempty"`
}

// ClassPrefix returns the upper-cased first letter of the building class
// code, or an empty string when the class is unknown.
func (p *Property) ClassPrefix() string {
	if p.BldgClass == nil || *p.BldgClass == "" {
		return ""
	}
	return strings.ToUpper((*p.BldgClass)[:1])
}

// MaxFAR returns the largest of the residential, commercial and facility
// allowed floor-area ratios. Missing values count as zero.
func (p *Property) MaxFAR() float64 {
	max := 0.0
	for _, far := range []*float64{p.ResidFAR, p.CommFAR, p.FacilFAR} {
		if far != nil && *far > max {
			max = *far
		}
	}
	return max
}

// FARGapValue returns the stored FAR gap when present, otherwise it
// recomputes allowed max FAR minus built FAR (floored at zero).
func (p *Property) FARGapValue() float64 {
	if p.FARGap != nil {
		return *p.FARGap
	}
	built := 0.0
	if p.BuiltFAR != nil {
		built = *p.BuiltFAR
	}
	gap := p.MaxFAR() - built
	if gap < 0 {
		return 0
	}
	return gap
}

// HasCoordinates reports whether the property has both latitude and
// longitude on record.
func (p *Property) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// intOrZero and floatOrZero give sort/aggregation code a uniform view of
// nullable numeric columns: missing values read as zero.

func intOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// NumericField returns the value of a sortable numeric column by its
// storage name. Missing fields sort as zero. The distress score is not a
// stored column and is resolved by the caller.
func (p *Property) NumericField(name string) float64 {
	switch name {
	case "far_gap":
		return floatOrZero(p.FARGap)
	case "assesstot":
		return intOrZero(p.AssessedTotal)
	case "yearbuilt":
		return intOrZero(p.YearBuilt)
	case "bldgarea":
		return intOrZero(p.BldgArea)
	case "lotarea":
		return intOrZero(p.LotArea)
	default:
		return 0
	}
}
