package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueries_Parse(t *testing.T) {
	assert.Equal(t, "GetCountries", GetCountries.Name())
	assert.Equal(t, "GetCountriesLimited", GetCountriesLimited.Name())
	assert.Equal(t, "GetCountry", GetCountry.Name())
	assert.Equal(t, "GetCountryWithPossibleError", GetCountryWithPossibleError.Name())

	assert.Contains(t, GetCountry.Document().Printed, "__typename")
	assert.Error(t, GetCountry.Document().ValidateVariables(nil))
}

func TestCountry_LanguageNames(t *testing.T) {
	c := Country{Languages: []Language{{Name: "German"}, {Name: "French"}}}
	assert.Equal(t, []string{"German", "French"}, c.LanguageNames())
	assert.Empty(t, Country{}.LanguageNames())
}
