package app

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"city_tourism/internal/domain"
)

/********** binding variables (must match the SELECT clause in sparql.go) **********/

const (
	varCity            = "city"
	varCityLabel       = "cityLabel"
	varEnCityLabel     = "enCityLabel"
	varTotalVisitors   = "totalVisitors"
	varAttractionCount = "attractionCount"
	varCoord           = "coord"
	varLogo            = "logo"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// bindingValue reads <variable>.value from one SPARQL binding.
func bindingValue(b map[string]any, variable string) string {
	return lookupStr(b, variable+".value")
}

// bindingNumber parses <variable>.value as a non-negative finite number.
// SPARQL JSON carries numbers as strings ("5000000", "1.2E6"); a bare JSON
// number is accepted too. Anything else yields 0.
func bindingNumber(b map[string]any, variable string) float64 {
	var f float64
	switch v := lookupAny(b, variable+".value").(type) {
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func bindingCount(b map[string]any, variable string) int {
	f := bindingNumber(b, variable)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

/********** results document mapper **********/

// parseCities maps a SPARQL JSON results document to cities in source order.
// A document without results.bindings yields an empty slice. Only a body that
// is not JSON at all is an error.
func parseCities(body []byte) ([]domain.City, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}
	root, _ := doc.(map[string]any)
	bindings, ok := lookupAny(root, "results.bindings").([]any)
	if !ok {
		return []domain.City{}, nil
	}

	out := make([]domain.City, 0, len(bindings))
	for _, it := range bindings {
		// a non-object binding degrades to an empty record
		b, _ := it.(map[string]any)
		out = append(out, mapBinding(b))
	}
	return out, nil
}

func mapBinding(b map[string]any) domain.City {
	return domain.City{
		URI:             bindingValue(b, varCity),
		Label:           bindingValue(b, varCityLabel),
		EnglishName:     bindingValue(b, varEnCityLabel),
		TotalVisitors:   bindingNumber(b, varTotalVisitors),
		AttractionCount: bindingCount(b, varAttractionCount),
		Coordinates:     bindingValue(b, varCoord),
		LogoURL:         bindingValue(b, varLogo),
	}
}
