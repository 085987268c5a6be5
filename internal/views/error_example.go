package views

import (
	"context"
	"strings"
	"sync"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/models"
)

// DefaultErrorCode is deliberately not a country.
const DefaultErrorCode = "INVALID"

// ErrorExample resolves under the relaxed error policy and renders errors
// and partial data side by side.
type ErrorExample struct {
	mu    sync.Mutex
	code  string
	query *client.ObservableQuery[models.CountryResponse]
}

// NewErrorExample mounts the view on DefaultErrorCode.
func NewErrorExample(c *client.Client) *ErrorExample {
	return NewErrorExampleFor(c, DefaultErrorCode)
}

// NewErrorExampleFor mounts the view on code.
func NewErrorExampleFor(c *client.Client, code string) *ErrorExample {
	v := &ErrorExample{code: strings.ToUpper(code)}
	v.query = client.Watch(c, models.GetCountryWithPossibleError, client.WatchOptions{
		Variables:   map[string]interface{}{"code": v.code},
		ErrorPolicy: client.ErrorPolicyAll,
		OnError:     v.reportError,
	})
	return v
}

func (v *ErrorExample) reportError(err error) {
	logging.Error("GraphQL Error", map[string]interface{}{
		"code":  v.Code(),
		"error": err.Error(),
	})
}

// SetCode handles text input: the value is upper-cased and resolved.
func (v *ErrorExample) SetCode(input string) {
	code := strings.ToUpper(input)

	v.mu.Lock()
	v.code = code
	v.mu.Unlock()

	v.query.SetVariables(map[string]interface{}{"code": code})
}

// Code returns the selected code.
func (v *ErrorExample) Code() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.code
}

// Retry re-resolves the same code.
func (v *ErrorExample) Retry() {
	v.query.Refetch()
}

// Render implements View.
func (v *ErrorExample) Render() string {
	var out lines
	res := v.query.Current()

	out.add("Error handling")
	out.add("Country code (try an invalid one): [%s]", v.Code())
	if res.Loading {
		out.add(loadingText)
	}
	if res.Err != nil {
		out.add("An error occurred: %s", res.Err.Error())
		out.add("[retry]")
	}
	if res.Data != nil && res.Data.Country != nil {
		out.add("✅ Fetched: %s %s", res.Data.Country.Emoji, res.Data.Country.Name)
	}
	return out.String()
}

// Wait implements View.
func (v *ErrorExample) Wait(ctx context.Context) error {
	_, err := v.query.Wait(ctx)
	return err
}

// Close implements View.
func (v *ErrorExample) Close() {
	v.query.Close()
}
