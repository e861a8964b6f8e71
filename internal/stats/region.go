package stats

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// RegionResolver turns an ISO 3166-1 alpha-2 code into a display name.
type RegionResolver interface {
	// Resolve returns the display name of code, or code itself when it is unknown.
	Resolve(code string) string
}

// EnglishRegions resolves region names in English using the CLDR tables.
type EnglishRegions struct {
	namer display.Namer
}

// NewEnglishRegions creates a resolver producing English region names.
func NewEnglishRegions() *EnglishRegions {
	return &EnglishRegions{namer: display.Regions(language.English)}
}

// Resolve implements RegionResolver.
func (r *EnglishRegions) Resolve(code string) string {
	region, err := language.ParseRegion(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	if name := r.namer.Name(region); name != "" {
		return name
	}
	return code
}
