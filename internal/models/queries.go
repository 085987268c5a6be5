package models

import "github.com/lablabs/countries-explorer/internal/client"

// GetCountries lists every country.
var GetCountries = client.MustQuery[CountriesResponse](`
	query GetCountries {
		countries {
			code
			name
			emoji
		}
	}
`)

// GetCountriesLimited is the list query used by the cache policy view.
var GetCountriesLimited = client.MustQuery[CountriesResponse](`
	query GetCountriesLimited {
		countries {
			code
			name
			emoji
		}
	}
`)

// GetCountry fetches one country with its languages and continent.
var GetCountry = client.MustQuery[CountryResponse](`
	query GetCountry($code: ID!) {
		country(code: $code) {
			name
			code
			emoji
			currency
			languages {
				name
			}
			continent {
				name
			}
		}
	}
`)

// GetCountryWithPossibleError fetches the short form of one country and is
// resolved under the relaxed error policy.
var GetCountryWithPossibleError = client.MustQuery[CountryResponse](`
	query GetCountryWithPossibleError($code: ID!) {
		country(code: $code) {
			code
			name
			emoji
		}
	}
`)
