package domain

// City is one row of the tourism ranking, assembled from a single SPARQL binding.
//
// TotalVisitors is the sum of the annual visitor counts (P1174) reported for
// the city's tourist attractions. Attractions without a visitor count add
// nothing to it but are still counted in AttractionCount.
type City struct {
	URI             string  `json:"cityUri"`
	Label           string  `json:"cityLabel"`
	EnglishName     string  `json:"cityEngName"`
	TotalVisitors   float64 `json:"totalVisitors"`
	AttractionCount int     `json:"attractionCount"`
	Coordinates     string  `json:"coordinates"` // raw upstream literal, e.g. "Point(30.52 50.45)"
	LogoURL         string  `json:"logoUrl"`
}

// NeedsLogo reports whether the record is a candidate for image enrichment.
func (c City) NeedsLogo() bool {
	return c.LogoURL == "" && c.EnglishName != ""
}
