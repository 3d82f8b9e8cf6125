package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Snapshot is a pre-fetched NYC Open Data extract: raw PLUTO lots, rolling
// sales, and HPD/DOB violations, all in the upstream string-typed form.
type Snapshot struct {
	Properties    []PlutoRecord        `json:"properties"`
	Sales         []SaleRecord         `json:"sales"`
	HPDViolations []HPDViolationRecord `json:"hpdViolations"`
	DOBViolations []DOBViolationRecord `json:"dobViolations"`
}

// PlutoRecord is one raw PLUTO tax-lot row. Numeric values arrive as
// strings, often with a decimal suffix.
type PlutoRecord struct {
	BBL           string `json:"bbl"`
	Address       string `json:"address"`
	Borough       string `json:"borough"`
	Block         string `json:"block"`
	Lot           string `json:"lot"`
	Zipcode       string `json:"zipcode"`
	BldgClass     string `json:"bldgclass"`
	OwnerName     string `json:"ownername"`
	LotArea       string `json:"lotarea"`
	BldgArea      string `json:"bldgarea"`
	NumFloors     string `json:"numfloors"`
	YearBuilt     string `json:"yearbuilt"`
	ZoneDist1     string `json:"zonedist1"`
	BuiltFAR      string `json:"builtfar"`
	CommFAR       string `json:"commfar"`
	ResidFAR      string `json:"residfar"`
	FacilFAR      string `json:"facilfar"`
	AssessTot     string `json:"assesstot"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	LastSaleDate  string `json:"lastsaledate"`
	LastSalePrice string `json:"lastsaleprice"`
}

// SaleRecord is one raw rolling-sales row.
type SaleRecord struct {
	BBL              string `json:"bbl"`
	Borough          string `json:"borough"`
	Block            string `json:"block"`
	Lot              string `json:"lot"`
	SalePrice        string `json:"sale_price"`
	SaleDate         string `json:"sale_date"`
	GrossSquareFeet  string `json:"gross_square_feet"`
	BuildingClassCat string `json:"building_class_category"`
}

// HPDViolationRecord is one raw HPD housing-violation row. HPD rows carry
// no BBL; it is assembled from borough, block and lot.
type HPDViolationRecord struct {
	ViolationID     string `json:"violationid"`
	BoroID          string `json:"boroid"`
	Block           string `json:"block"`
	Lot             string `json:"lot"`
	NovDescription  string `json:"novdescription"`
	ViolationStatus string `json:"violationstatus"`
	ApprovedDate    string `json:"approveddate"`
}

// DOBViolationRecord is one raw DOB violation row. A missing disposition
// date means the violation is still open.
type DOBViolationRecord struct {
	ISN             string `json:"isn_dob_bis_viol"`
	BoroCode        string `json:"boro"`
	Block           string `json:"block"`
	Lot             string `json:"lot"`
	Description     string `json:"description"`
	DispositionDate string `json:"disposition_date"`
	IssueDate       string `json:"issue_date"`
}

// DecodeSnapshot reads a snapshot from a JSON stream.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// ReadSnapshot reads a snapshot from a JSON file.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}
