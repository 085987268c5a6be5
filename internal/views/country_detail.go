package views

import (
	"context"
	"strings"
	"sync"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/models"
)

// DefaultDetailCode is the country shown when the detail view mounts.
const DefaultDetailCode = "JP"

// CountryDetail shows one country selected by its code.
type CountryDetail struct {
	mu    sync.Mutex
	code  string
	query *client.ObservableQuery[models.CountryResponse]
}

// NewCountryDetail mounts the detail view on DefaultDetailCode.
func NewCountryDetail(c *client.Client) *CountryDetail {
	return NewCountryDetailFor(c, DefaultDetailCode)
}

// NewCountryDetailFor mounts the detail view on code.
func NewCountryDetailFor(c *client.Client, code string) *CountryDetail {
	code = strings.ToUpper(code)
	return &CountryDetail{
		code: code,
		query: client.Watch(c, models.GetCountry, client.WatchOptions{
			Variables: map[string]interface{}{"code": code},
		}),
	}
}

// SetCode handles text input: the value is upper-cased and resolved.
func (v *CountryDetail) SetCode(input string) {
	code := strings.ToUpper(input)

	v.mu.Lock()
	v.code = code
	v.mu.Unlock()

	v.query.SetVariables(map[string]interface{}{"code": code})
}

// Code returns the selected code.
func (v *CountryDetail) Code() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.code
}

// Render implements View.
func (v *CountryDetail) Render() string {
	var out lines
	res := v.query.Current()
	if res.Loading {
		out.add(loadingText)
		return out.String()
	}
	if res.Err != nil {
		out.add(errorPrefix+"%s", res.Err.Error())
		return out.String()
	}

	out.add("Country details")
	out.add("Country code: [%s] (e.g. JP, US, FR)", v.Code())
	if res.Data == nil || res.Data.Country == nil {
		return out.String()
	}
	country := res.Data.Country
	out.add("  %s %s", country.Emoji, country.Name)
	out.add("  Code: %s", country.Code)
	out.add("  Currency: %s", country.Currency)
	out.add("  Continent: %s", country.Continent.Name)
	out.add("  Languages: %s", strings.Join(country.LanguageNames(), ", "))
	return out.String()
}

// Wait implements View.
func (v *CountryDetail) Wait(ctx context.Context) error {
	_, err := v.query.Wait(ctx)
	return err
}

// Close implements View.
func (v *CountryDetail) Close() {
	v.query.Close()
}
