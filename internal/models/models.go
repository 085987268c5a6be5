package models

// Language is a spoken language of a country.
type Language struct {
	Name string `json:"name"`
}

// Continent is the continent a country belongs to.
type Continent struct {
	Name string `json:"name"`
}

// Country is a record of the countries API. Fields not selected by a query
// stay zero.
type Country struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Emoji     string     `json:"emoji"`
	Currency  string     `json:"currency"`
	Languages []Language `json:"languages"`
	Continent Continent  `json:"continent"`
}

// LanguageNames returns the names of the country's languages in order.
func (c Country) LanguageNames() []string {
	names := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		names = append(names, l.Name)
	}
	return names
}

// CountriesResponse is the result of the countries list queries.
type CountriesResponse struct {
	Countries []Country `json:"countries"`
}

// CountryResponse is the result of the single country queries. Country is
// nil when the API returned null.
type CountryResponse struct {
	Country *Country `json:"country"`
}
