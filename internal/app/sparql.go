package app

import (
	"fmt"
	"strings"
)

// QueryBuilder renders the two SPARQL queries the ranking service needs.
// Both are pure string templates; callers are responsible for rejecting
// names that could break out of the string literal.
type QueryBuilder struct {
	Country   string // Wikidata QID of the country, e.g. "Q212"
	Languages string // label service languages, e.g. "uk,en"
}

const (
	defaultCountry   = "Q212"
	defaultLanguages = "uk,en"
)

func DefaultQueryBuilder() QueryBuilder {
	return QueryBuilder{Country: defaultCountry, Languages: defaultLanguages}
}

// Q515 city, Q570116 tourist attraction, P17 country, P131 located in the
// administrative entity, P154 logo image, P625 coordinate, P1174 visitors per year.
const cityQueryTemplate = `
PREFIX wd: <http://www.wikidata.org/entity/>
PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX wikibase: <http://wikiba.se/ontology#>
PREFIX bd: <http://www.bigdata.com/rdf#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>

SELECT ?city ?cityLabel (SAMPLE(?enLabel) AS ?enCityLabel) (SUM(?visitors) AS ?totalVisitors)
       (COUNT(?attraction) AS ?attractionCount) (SAMPLE(?cityCoord) AS ?coord) (SAMPLE(?cityLogo) AS ?logo)
WHERE {
  ?city (wdt:P31/wdt:P279*) wd:Q515.
  ?city wdt:P17 wd:%[1]s.
%[3]s  OPTIONAL { ?city wdt:P154 ?cityLogo. }
  OPTIONAL { ?city rdfs:label ?enLabel. FILTER(LANG(?enLabel) = 'en') }
  ?attraction (wdt:P31/wdt:P279*) wd:Q570116.
  ?attraction wdt:P131* ?city.
  OPTIONAL { ?attraction wdt:P1174 ?visitors. }
  OPTIONAL { ?city wdt:P625 ?cityCoord. }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%[2]s". }
}
GROUP BY ?city ?cityLabel
%[4]s`

// BuildRankingQuery returns the top-limit cities ordered by summed attraction visitors.
func (b QueryBuilder) BuildRankingQuery(limit int) string {
	return b.render("", fmt.Sprintf("ORDER BY DESC(?totalVisitors)\nLIMIT %d", limit))
}

// BuildLookupQuery returns at most one city whose English label is exactly name.
func (b QueryBuilder) BuildLookupQuery(name string) string {
	return b.render(fmt.Sprintf("  ?city rdfs:label \"%s\"@en.\n", name), "LIMIT 1")
}

func (b QueryBuilder) render(filter, tail string) string {
	country, langs := strings.TrimSpace(b.Country), strings.TrimSpace(b.Languages)
	if country == "" {
		country = defaultCountry
	}
	if langs == "" {
		langs = defaultLanguages
	}
	return fmt.Sprintf(cityQueryTemplate, country, langs, filter, tail)
}
