package views

import (
	"context"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/models"
)

// CountryList renders every country as "<emoji> <name> (<code>)".
type CountryList struct {
	query *client.ObservableQuery[models.CountriesResponse]
}

// NewCountryList mounts the list and starts its query.
func NewCountryList(c *client.Client) *CountryList {
	return &CountryList{
		query: client.Watch(c, models.GetCountries, client.WatchOptions{}),
	}
}

// Render implements View.
func (v *CountryList) Render() string {
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

	out.add("Countries of the world")
	if res.Data == nil {
		return out.String()
	}
	seen := make(map[string]struct{}, len(res.Data.Countries))
	for _, country := range res.Data.Countries {
		// entries are keyed by code
		if _, dup := seen[country.Code]; dup {
			logging.Warn("Duplicate country code in list", map[string]interface{}{"code": country.Code})
			continue
		}
		seen[country.Code] = struct{}{}
		out.add("  %s %s (%s)", country.Emoji, country.Name, country.Code)
	}
	return out.String()
}

// Wait implements View.
func (v *CountryList) Wait(ctx context.Context) error {
	_, err := v.query.Wait(ctx)
	return err
}

// Close implements View.
func (v *CountryList) Close() {
	v.query.Close()
}
