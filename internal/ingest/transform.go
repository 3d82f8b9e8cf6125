package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nycre/explorer/internal/models"
)

// Upstream date values look like "2023-05-01T00:00:00.000".
const upstreamDateLayout = "2006-01-02"

// intPart parses the integer portion of an upstream numeric string,
// tolerating zero padding ("00123") and decimal suffixes ("1523.000").
func intPart(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseIntField parses an optional integer column. Missing, unparseable and
// zero values all read as absent, matching how the source datasets use zero
// as a stand-in for unknown.
func parseIntField(s string) *int {
	v, ok := intPart(s)
	if !ok || v == 0 {
		return nil
	}
	return &v
}

func parseFloatField(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}

// parseDateField parses an upstream timestamp, keeping only the date part.
// DOB datasets use a compact "20230501" form; everything else is ISO.
func parseDateField(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) >= len(upstreamDateLayout) {
		if t, err := time.Parse(upstreamDateLayout, s[:len(upstreamDateLayout)]); err == nil {
			return &t
		}
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return &t
	}
	return nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// resolveBBL returns the canonical BBL for a record, preferring the record's
// own BBL field and falling back to assembling one from borough, block and
// lot. Returns an empty string when neither route yields a valid BBL.
func resolveBBL(bbl, borough, block, lot string) string {
	if bbl != "" {
		cleaned := models.CleanBBL(bbl)
		if models.ValidBBL(cleaned) {
			return cleaned
		}
	}
	boro, ok := intPart(borough)
	if !ok {
		return ""
	}
	blk, ok := intPart(block)
	if !ok {
		return ""
	}
	lt, ok := intPart(lot)
	if !ok {
		return ""
	}
	built := models.NormalizeBBL(boro, blk, lt)
	if !models.ValidBBL(built) {
		return ""
	}
	return built
}

// bldgClassDesc maps a building-class code prefix to a display description.
func bldgClassDesc(code string) *string {
	if code == "" {
		return nil
	}
	desc := "Other"
	switch strings.ToUpper(code[:1]) {
	case "O":
		desc = "Office"
	case "K":
		desc = "Retail/Store"
	case "D":
		desc = "Elevator Apartment"
	case "E":
		desc = "Warehouse"
	case "R":
		desc = "Condo"
	}
	return &desc
}

// TransformProperty converts a raw PLUTO row into a Property, deriving the
// FAR gap from the allowed and built ratios.
func TransformProperty(rec PlutoRecord) (models.Property, error) {
	bbl := resolveBBL(rec.BBL, rec.Borough, rec.Block, rec.Lot)
	if bbl == "" {
		return models.Property{}, fmt.Errorf("property record has no usable BBL (bbl=%q block=%q lot=%q)", rec.BBL, rec.Block, rec.Lot)
	}

	p := models.Property{
		BBL:           bbl,
		Address:       optString(rec.Address),
		Borough:       parseIntField(rec.Borough),
		Block:         parseIntField(rec.Block),
		Lot:           parseIntField(rec.Lot),
		Zipcode:       optString(rec.Zipcode),
		BldgClass:     optString(rec.BldgClass),
		BldgClassDesc: bldgClassDesc(rec.BldgClass),
		OwnerName:     optString(rec.OwnerName),
		LotArea:       parseIntField(rec.LotArea),
		BldgArea:      parseIntField(rec.BldgArea),
		NumFloors:     parseFloatField(rec.NumFloors),
		YearBuilt:     parseIntField(rec.YearBuilt),
		ZoneDist:      optString(rec.ZoneDist1),
		BuiltFAR:      parseFloatField(rec.BuiltFAR),
		CommFAR:       parseFloatField(rec.CommFAR),
		ResidFAR:      parseFloatField(rec.ResidFAR),
		FacilFAR:      parseFloatField(rec.FacilFAR),
		AssessedTotal: parseIntField(rec.AssessTot),
		Lat:           parseFloatField(rec.Latitude),
		Lng:           parseFloatField(rec.Longitude),
		LastSaleDate:  parseDateField(rec.LastSaleDate),
		LastSalePrice: parseIntField(rec.LastSalePrice),
	}

	gap := p.FARGapValue()
	p.FARGap = &gap

	return p, nil
}

// TransformSale converts a raw rolling-sales row into a Sale, deriving
// price per square foot when both operands are on record.
func TransformSale(rec SaleRecord) (models.Sale, error) {
	bbl := resolveBBL(rec.BBL, rec.Borough, rec.Block, rec.Lot)
	if bbl == "" {
		return models.Sale{}, fmt.Errorf("sale record has no usable BBL (bbl=%q block=%q lot=%q)", rec.BBL, rec.Block, rec.Lot)
	}

	s := models.Sale{
		BBL:           bbl,
		SalePrice:     parseIntField(rec.SalePrice),
		SaleDate:      parseDateField(rec.SaleDate),
		GrossSF:       parseIntField(rec.GrossSquareFeet),
		BuildingClass: optString(rec.BuildingClassCat),
	}

	if s.SalePrice != nil && s.GrossSF != nil && *s.GrossSF > 0 {
		psf := math.Round(float64(*s.SalePrice) / float64(*s.GrossSF))
		s.PricePerSF = &psf
	}

	return s, nil
}

// TransformHPDViolation converts a raw HPD row into a Violation. HPD rows
// identify the lot by components only.
func TransformHPDViolation(rec HPDViolationRecord) (models.Violation, error) {
	bbl := resolveBBL("", rec.BoroID, rec.Block, rec.Lot)
	if bbl == "" {
		return models.Violation{}, fmt.Errorf("HPD record has no usable BBL (boro=%q block=%q lot=%q)", rec.BoroID, rec.Block, rec.Lot)
	}
	if rec.ViolationID == "" {
		return models.Violation{}, fmt.Errorf("HPD record for %s has no violation id", bbl)
	}

	return models.Violation{
		BBL:           bbl,
		ViolationID:   rec.ViolationID,
		ViolationType: models.ViolationTypeHPD,
		Status:        rec.ViolationStatus,
		IssueDate:     parseDateField(rec.ApprovedDate),
		Description:   optString(rec.NovDescription),
	}, nil
}

// TransformDOBViolation converts a raw DOB row into a Violation. DOB rows
// carry no status column; an unset disposition date means still open.
func TransformDOBViolation(rec DOBViolationRecord) (models.Violation, error) {
	bbl := resolveBBL("", rec.BoroCode, rec.Block, rec.Lot)
	if bbl == "" {
		return models.Violation{}, fmt.Errorf("DOB record has no usable BBL (boro=%q block=%q lot=%q)", rec.BoroCode, rec.Block, rec.Lot)
	}
	if rec.ISN == "" {
		return models.Violation{}, fmt.Errorf("DOB record for %s has no violation id", bbl)
	}

	status := models.ViolationStatusOpen
	if rec.DispositionDate != "" {
		status = models.ViolationStatusClosed
	}

	return models.Violation{
		BBL:           bbl,
		ViolationID:   rec.ISN,
		ViolationType: models.ViolationTypeDOB,
		Status:        status,
		IssueDate:     parseDateField(rec.IssueDate),
		Description:   optString(rec.Description),
	}, nil
}
