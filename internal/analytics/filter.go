package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nycre/explorer/internal/models"
)

// ClassGroup describes one semantic building-class filter: the set of
// building-class code prefixes it allows.
type ClassGroup struct {
	Label    string
	Prefixes []string
}

// FilterConfig is the single source of truth mapping semantic filter names
// to building-class prefixes and sortable columns. It is built once at
// package init and never mutated at runtime.
type FilterConfig struct {
	BldgClasses  map[string]ClassGroup
	SortFields   []string
	DefaultSort  string
	DefaultOrder string
}

var defaultFilterConfig = FilterConfig{
	BldgClasses: map[string]ClassGroup{
		"office":     {Label: "Office", Prefixes: []string{"O"}},
		"retail":     {Label: "Retail", Prefixes: []string{"K"}},
		"multifam":   {Label: "Multifamily", Prefixes: []string{"C", "D", "S", "R"}},
		"industrial": {Label: "Industrial", Prefixes: []string{"E", "F", "G", "L"}},
	},
	SortFields:   []string{"far_gap", "assesstot", "yearbuilt", "bldgarea", "lotarea", "distress_score"},
	DefaultSort:  "far_gap",
	DefaultOrder: "desc",
}

// Config returns the immutable filter configuration.
func Config() FilterConfig {
	return defaultFilterConfig
}

// FilterParams is the validated, typed form of the property query
// vocabulary. Nil pointer fields mean the bound is absent. Parameters that
// fail to parse from strings are treated as absent, not as zero.
type FilterParams struct {
	BldgClass   string
	MinFARGap   *float64
	MaxFARGap   *float64
	MinYear     *int
	MaxYear     *int
	MinAssessed *int
	MaxAssessed *int
	Owner       string
	Address     string
	Zipcode     string
	MinDistress *int
	Sort        string
	Order       string
}

// ParseFilterParams builds FilterParams from raw query-string values.
// The get function returns the raw value for a parameter name, or an empty
// string when absent. String and typed construction produce identical
// filtering results.
func ParseFilterParams(get func(string) string) FilterParams {
	return FilterParams{
		BldgClass:   get("bldgclass"),
		MinFARGap:   parseFloat(get("minFarGap")),
		MaxFARGap:   parseFloat(get("maxFarGap")),
		MinYear:     parseInt(get("minYear")),
		MaxYear:     parseInt(get("maxYear")),
		MinAssessed: parseInt(get("minAssessed")),
		MaxAssessed: parseInt(get("maxAssessed")),
		Owner:       get("owner"),
		Address:     get("address"),
		Zipcode:     get("zipcode"),
		MinDistress: parseInt(get("minDistress")),
		Sort:        get("sort"),
		Order:       get("order"),
	}
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// AllowedPrefixes resolves the semantic building-class filter to its prefix
// set. A nil result means no class constraint applies ("all", absent, or
// unrecognized values).
func (f FilterParams) AllowedPrefixes() []string {
	if f.BldgClass == "" || f.BldgClass == "all" {
		return nil
	}
	group, ok := defaultFilterConfig.BldgClasses[f.BldgClass]
	if !ok {
		return nil
	}
	return group.Prefixes
}

// MatchesClass reports whether a raw building-class code satisfies the
// class filter. Matching is prefix-based and case-insensitive.
func (f FilterParams) MatchesClass(bldgclass string) bool {
	prefixes := f.AllowedPrefixes()
	if prefixes == nil {
		return true
	}
	if bldgclass == "" {
		return false
	}
	prefix := strings.ToUpper(bldgclass[:1])
	for _, p := range prefixes {
		if prefix == p {
			return true
		}
	}
	return false
}

// Matches is the in-memory predicate form of the filter: it applies every
// storage-pushable criterion to a single property. The distress threshold
// is a derived value and is deliberately not applied here; callers apply it
// after scoring.
func (f FilterParams) Matches(p *models.Property) bool {
	if p == nil {
		return false
	}
	bldgclass := ""
	if p.BldgClass != nil {
		bldgclass = *p.BldgClass
	}
	if !f.MatchesClass(bldgclass) {
		return false
	}
	if f.MinFARGap != nil && (p.FARGap == nil || *p.FARGap < *f.MinFARGap) {
		return false
	}
	if f.MaxFARGap != nil && (p.FARGap == nil || *p.FARGap > *f.MaxFARGap) {
		return false
	}
	if f.MinYear != nil && (p.YearBuilt == nil || *p.YearBuilt < *f.MinYear) {
		return false
	}
	if f.MaxYear != nil && (p.YearBuilt == nil || *p.YearBuilt > *f.MaxYear) {
		return false
	}
	if f.MinAssessed != nil && (p.AssessedTotal == nil || *p.AssessedTotal < *f.MinAssessed) {
		return false
	}
	if f.MaxAssessed != nil && (p.AssessedTotal == nil || *p.AssessedTotal > *f.MaxAssessed) {
		return false
	}
	if f.Owner != "" && !containsFold(p.OwnerName, f.Owner) {
		return false
	}
	if f.Address != "" && !containsFold(p.Address, f.Address) {
		return false
	}
	if f.Zipcode != "" && (p.Zipcode == nil || *p.Zipcode != f.Zipcode) {
		return false
	}
	return true
}

func containsFold(field *string, substr string) bool {
	if field == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*field), strings.ToLower(substr))
}

// SortField returns the effective sort column, falling back to the default
// when the requested field is not on the allow-list.
func (f FilterParams) SortField() string {
	for _, field := range defaultFilterConfig.SortFields {
		if f.Sort == field {
			return f.Sort
		}
	}
	return defaultFilterConfig.DefaultSort
}

// Ascending reports the effective sort direction. Anything other than an
// explicit "asc" sorts descending.
func (f FilterParams) Ascending() bool {
	return f.Order == "asc"
}

// SortProperties orders scored properties in place by the effective sort
// field and direction. Missing numeric fields sort as zero. The sort is
// stable so equal keys keep their retrieval order.
func (f FilterParams) SortProperties(props []ScoredProperty) {
	field := f.SortField()
	asc := f.Ascending()
	sort.SliceStable(props, func(i, j int) bool {
		a := props[i].sortValue(field)
		b := props[j].sortValue(field)
		if asc {
			return a < b
		}
		return a > b
	})
}

func (sp *ScoredProperty) sortValue(field string) float64 {
	if field == "distress_score" {
		return float64(sp.DistressScore)
	}
	if sp.Property == nil {
		return 0
	}
	return sp.Property.NumericField(field)
}
