// Package clienttest provides an in-memory countries API for tests.
package clienttest

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/jarcoal/httpmock"
)

// Endpoint is the URL the fake API answers on.
const Endpoint = "https://countries.test/graphql"

// ListKey holds the countries list query when passed to Hold.
const ListKey = "*"

// Country is a record served by the fake API.
type Country struct {
	Code      string
	Name      string
	Emoji     string
	Currency  string
	Continent string
	Languages []string
}

// Countries is the default data set.
var Countries = []Country{
	{Code: "JP", Name: "Japan", Emoji: "🇯🇵", Currency: "JPY", Continent: "Asia", Languages: []string{"Japanese"}},
	{Code: "FR", Name: "France", Emoji: "🇫🇷", Currency: "EUR", Continent: "Europe", Languages: []string{"French"}},
	{Code: "CH", Name: "Switzerland", Emoji: "🇨🇭", Currency: "CHE,CHF,CHW", Continent: "Europe", Languages: []string{"German", "French", "Italian"}},
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// API is a fake countries GraphQL endpoint backed by an httpmock transport.
type API struct {
	Transport *httpmock.MockTransport

	mu        sync.Mutex
	countries []Country
	errors    map[string]string
	gates     map[string]chan struct{}
	netErr    error
}

// NewAPI returns a fake API serving Countries.
func NewAPI() *API {
	a := &API{
		Transport: httpmock.NewMockTransport(),
		countries: Countries,
		errors:    make(map[string]string),
		gates:     make(map[string]chan struct{}),
	}
	a.Transport.RegisterResponder(http.MethodPost, Endpoint, a.respond)
	return a
}

// Calls returns the number of requests the API received.
func (a *API) Calls() int {
	return a.Transport.GetTotalCallCount()
}

// Hold blocks requests for code (or ListKey) until release is called.
func (a *API) Hold(code string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.gates[code] = ch
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.gates, code)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// FailWith makes every request fail at the transport with err; nil clears it.
func (a *API) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.netErr = err
}

// ErrorFor makes requests for code carry a GraphQL error with message. Known
// codes keep returning their data, which makes the response partial.
func (a *API) ErrorFor(code, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors[code] = message
}

func (a *API) respond(req *http.Request) (*http.Response, error) {
	var body request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return httpmock.NewStringResponse(http.StatusBadRequest, `{"errors":[{"message":"bad request"}]}`), nil
	}

	code, byCode := body.Variables["code"].(string)
	key := ListKey
	if byCode {
		key = code
	}

	a.mu.Lock()
	gate := a.gates[key]
	a.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.netErr != nil {
		return nil, a.netErr
	}

	if !byCode {
		list := make([]interface{}, 0, len(a.countries))
		for _, c := range a.countries {
			list = append(list, countryJSON(c))
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"countries": list},
		})
	}

	out := map[string]interface{}{}
	var country interface{}
	for _, c := range a.countries {
		if c.Code == code {
			country = countryJSON(c)
		}
	}
	out["data"] = map[string]interface{}{"country": country}

	msg, hasErr := a.errors[code]
	if country == nil && !hasErr {
		hasErr, msg = true, "Country not found"
	}
	if hasErr {
		out["errors"] = []interface{}{
			map[string]interface{}{"message": msg, "path": []string{"country"}},
		}
	}
	return httpmock.NewJsonResponse(http.StatusOK, out)
}

func countryJSON(c Country) map[string]interface{} {
	langs := make([]interface{}, 0, len(c.Languages))
	for _, l := range c.Languages {
		langs = append(langs, map[string]interface{}{"__typename": "Language", "name": l})
	}
	return map[string]interface{}{
		"__typename": "Country",
		"code":       c.Code,
		"name":       c.Name,
		"emoji":      c.Emoji,
		"currency":   c.Currency,
		"languages":  langs,
		"continent":  map[string]interface{}{"__typename": "Continent", "name": c.Continent},
	}
}
