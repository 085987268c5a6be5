package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lablabs/countries-explorer/internal/client/clienttest"
)

type language struct {
	Name string `json:"name"`
}

type country struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Emoji     string     `json:"emoji"`
	Currency  string     `json:"currency"`
	Languages []language `json:"languages"`
	Continent struct {
		Name string `json:"name"`
	} `json:"continent"`
}

type countryData struct {
	Country *country `json:"country"`
}

type countriesData struct {
	Countries []country `json:"countries"`
}

var (
	getCountries = MustQuery[countriesData](`query GetCountries { countries { code name emoji } }`)
	getCountry   = MustQuery[countryData](`
		query GetCountry($code: ID!) {
			country(code: $code) {
				name
				code
				emoji
				currency
				languages { name }
				continent { name }
			}
		}`)
	getCountryShort = MustQuery[countryData](`
		query GetCountryWithPossibleError($code: ID!) {
			country(code: $code) { code name emoji }
		}`)
)

func newTestClient(t *testing.T) (*Client, *clienttest.API) {
	t.Helper()
	api := clienttest.NewAPI()
	c := New(Options{Endpoint: clienttest.Endpoint, Transport: api.Transport})
	t.Cleanup(c.Close)
	return c, api
}

func vars(code string) map[string]interface{} {
	return map[string]interface{}{"code": code}
}

func TestParseDocument_AddsTypename(t *testing.T) {
	doc, err := ParseDocument(`query GetCountries { countries { code name emoji } }`)
	require.NoError(t, err)

	assert.Equal(t, "GetCountries", doc.Name)
	assert.Equal(t, 1, strings.Count(doc.Printed, "__typename"))

	doc, err = ParseDocument(`{ country(code: "JP") { name continent { name } __typename } }`)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", doc.Name)
	assert.Equal(t, 2, strings.Count(doc.Printed, "__typename"))
}

func TestParseDocument_Rejects(t *testing.T) {
	cases := map[string]string{
		"syntax":   `query { countries { code `,
		"mutation": `mutation M { addCountry(code: "XX") { code } }`,
		"two ops":  `query A { countries { code } } query B { countries { name } }`,
		"no op":    `fragment F on Country { code }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(src)
			assert.Error(t, err)
		})
	}
}

func TestMustQuery_Panics(t *testing.T) {
	assert.Panics(t, func() { MustQuery[countryData](`query {`) })
}

func TestValidateVariables(t *testing.T) {
	doc := getCountry.Document()

	err := doc.ValidateVariables(nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorKindValidation))
	assert.Equal(t, `Variable "$code" of required type "ID!" was not provided.`, err.Error())

	assert.NoError(t, doc.ValidateVariables(vars("JP")))

	withDefault, err := ParseDocument(`query Q($code: ID! = "JP") { country(code: $code) { name } }`)
	require.NoError(t, err)
	assert.NoError(t, withDefault.ValidateVariables(nil))
	assert.Equal(t, "JP", withDefault.withDefaults(nil)["code"])
}

func TestResolve_ValidationSkipsNetwork(t *testing.T) {
	c, api := newTestClient(t)

	resp := c.Resolve(context.Background(), Request{Document: getCountry.Document(), FetchPolicy: NetworkOnly})
	assert.True(t, IsKind(resp.Err, ErrorKindValidation))
	assert.Equal(t, 0, api.Calls())
}

func TestResolve_PreferCacheThenCacheOnly(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	res := Execute(ctx, c, getCountry, Request{Variables: vars("JP"), FetchPolicy: PreferCache})
	require.NoError(t, res.Err)
	require.NotNil(t, res.Data.Country)
	assert.Equal(t, "Japan", res.Data.Country.Name)
	assert.Equal(t, "Asia", res.Data.Country.Continent.Name)
	assert.Equal(t, "JPY", res.Data.Country.Currency)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 1, api.Calls())

	res = Execute(ctx, c, getCountry, Request{Variables: vars("JP"), FetchPolicy: CacheOnly})
	require.NoError(t, res.Err)
	require.NotNil(t, res.Data)
	assert.Equal(t, "Japan", res.Data.Country.Name)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, 1, api.Calls())
	assert.EqualValues(t, 1, c.Calls())

	res = Execute(ctx, c, getCountry, Request{Variables: vars("JP"), FetchPolicy: PreferCache})
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, 1, api.Calls())
}

func TestResolve_ListPopulatesEntities(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	res := Execute(ctx, c, getCountries, Request{})
	require.NoError(t, res.Err)
	assert.Len(t, res.Data.Countries, len(clienttest.Countries))

	// country(code:) is a different root field, so it misses even though
	// Country:JP is cached
	res2 := Execute(ctx, c, getCountryShort, Request{Variables: vars("JP"), FetchPolicy: CacheOnly})
	assert.Nil(t, res2.Data)
	assert.Nil(t, res2.Err)
	assert.Equal(t, 1, api.Calls())

	snap := c.CacheSnapshot()
	assert.Contains(t, snap, "Country:JP")
	assert.Contains(t, snap, "Country:FR")
}

func TestResolve_NetworkOnlyAlwaysFetches(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := Execute(ctx, c, getCountries, Request{FetchPolicy: NetworkOnly})
		require.NoError(t, res.Err)
	}
	assert.Equal(t, 3, api.Calls())
}

func TestResolve_CacheOnlyMiss(t *testing.T) {
	c, api := newTestClient(t)

	res := Execute(context.Background(), c, getCountries, Request{FetchPolicy: CacheOnly})
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
	assert.Equal(t, NetworkStatusReady, res.NetworkStatus)
	assert.Equal(t, 0, api.Calls())
}

func TestResolve_NoCacheDoesNotWrite(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	res := Execute(ctx, c, getCountries, Request{FetchPolicy: NoCache})
	require.NoError(t, res.Err)

	res = Execute(ctx, c, getCountries, Request{FetchPolicy: CacheOnly})
	assert.Nil(t, res.Data)
	assert.Equal(t, 1, api.Calls())
}

func TestResolve_ErrorPolicies(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	none := Execute(ctx, c, getCountryShort, Request{Variables: vars("INVALID")})
	require.Error(t, none.Err)
	assert.True(t, IsKind(none.Err, ErrorKindGraphQL))
	assert.Equal(t, "Country not found", none.Err.Error())
	assert.Nil(t, none.Data)
	assert.Equal(t, NetworkStatusError, none.NetworkStatus)

	all := Execute(ctx, c, getCountryShort, Request{Variables: vars("INVALID"), ErrorPolicy: ErrorPolicyAll})
	require.Error(t, all.Err)
	require.NotNil(t, all.Data)
	assert.Nil(t, all.Data.Country)

	api.ErrorFor("JP", "Partial failure")
	partial := Execute(ctx, c, getCountryShort, Request{Variables: vars("JP"), ErrorPolicy: ErrorPolicyAll, FetchPolicy: NetworkOnly})
	require.Error(t, partial.Err)
	require.NotNil(t, partial.Data.Country)
	assert.Equal(t, "Japan", partial.Data.Country.Name)

	ignore := Execute(ctx, c, getCountryShort, Request{Variables: vars("JP"), ErrorPolicy: ErrorPolicyIgnore, FetchPolicy: NetworkOnly})
	assert.NoError(t, ignore.Err)
	require.NotNil(t, ignore.Data.Country)
}

func TestResolve_ErroredResultIsNotCached(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	res := Execute(ctx, c, getCountryShort, Request{Variables: vars("INVALID"), ErrorPolicy: ErrorPolicyAll})
	require.Error(t, res.Err)

	cached := Execute(ctx, c, getCountryShort, Request{Variables: vars("INVALID"), FetchPolicy: CacheOnly})
	assert.Nil(t, cached.Data)

	again := Execute(ctx, c, getCountryShort, Request{Variables: vars("INVALID"), ErrorPolicy: ErrorPolicyAll})
	require.Error(t, again.Err)
	assert.Equal(t, "Country not found", again.Err.Error())
	assert.Equal(t, 2, api.Calls())
}

func TestResolve_PartialResultKeepsEntities(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()
	api.ErrorFor("JP", "Partial failure")

	res := Execute(ctx, c, getCountryShort, Request{Variables: vars("JP"), ErrorPolicy: ErrorPolicyAll})
	require.Error(t, res.Err)
	require.NotNil(t, res.Data.Country)

	assert.Contains(t, c.CacheSnapshot(), "Country:JP")
	cached := Execute(ctx, c, getCountryShort, Request{Variables: vars("JP"), FetchPolicy: CacheOnly})
	assert.Nil(t, cached.Data)
}

func resolveConcurrently(t *testing.T, c *Client, api *clienttest.API, n, wantCalls int) {
	t.Helper()
	release := api.Hold(clienttest.ListKey)
	defer release()

	var wg sync.WaitGroup
	results := make([]Result[countriesData], n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Execute(context.Background(), c, getCountries, Request{FetchPolicy: NetworkOnly})
		}(i)
	}

	assert.Eventually(t, func() bool { return api.Calls() == wantCalls }, time.Second, 5*time.Millisecond)
	// give the remaining callers time to join the held request
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Len(t, res.Data.Countries, len(clienttest.Countries))
	}
	assert.Equal(t, wantCalls, api.Calls())
}

func TestResolve_DeduplicatesInflightRequests(t *testing.T) {
	c, api := newTestClient(t)
	resolveConcurrently(t, c, api, 3, 1)
}

func TestResolve_DeduplicationDisabled(t *testing.T) {
	api := clienttest.NewAPI()
	c := New(Options{Endpoint: clienttest.Endpoint, Transport: api.Transport, DisableDeduplication: true})
	defer c.Close()
	resolveConcurrently(t, c, api, 3, 3)
}

func TestResolve_NetworkError(t *testing.T) {
	c, api := newTestClient(t)
	api.FailWith(errors.New("connection refused"))

	res := Execute(context.Background(), c, getCountries, Request{ErrorPolicy: ErrorPolicyIgnore})
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, ErrorKindNetwork))
	assert.Contains(t, res.Err.Error(), "connection refused")
	assert.Nil(t, res.Data)
}

func TestResolve_Non200(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, clienttest.Endpoint, httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"))
	c := New(Options{Endpoint: clienttest.Endpoint, Transport: mt})
	defer c.Close()

	res := Execute(context.Background(), c, getCountries, Request{})
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, ErrorKindNetwork))
	assert.Contains(t, res.Err.Error(), "502")
}

func TestResolve_RequestTimeout(t *testing.T) {
	api := clienttest.NewAPI()
	release := api.Hold(clienttest.ListKey)
	defer release()

	c := New(Options{Endpoint: clienttest.Endpoint, Transport: api.Transport, RequestTimeout: 20 * time.Millisecond})
	defer c.Close()

	res := Execute(context.Background(), c, getCountries, Request{})
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, ErrorKindNetwork))
}

func TestEvictAndReset(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	Execute(ctx, c, getCountries, Request{})
	assert.True(t, c.Evict("Country:JP"))

	res := Execute(ctx, c, getCountries, Request{})
	require.NoError(t, res.Err)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 2, api.Calls())

	c.ResetCache()
	res = Execute(ctx, c, getCountries, Request{FetchPolicy: CacheOnly})
	assert.Nil(t, res.Data)
}

func TestParseFetchPolicy(t *testing.T) {
	p, err := ParseFetchPolicy("cache-first")
	require.NoError(t, err)
	assert.Equal(t, PreferCache, p)

	p, err = ParseFetchPolicy("cache-only")
	require.NoError(t, err)
	assert.Equal(t, CacheOnly, p)

	_, err = ParseFetchPolicy("cache-sometimes")
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, classifyError(nil))

	gql := classifyError(errors.New("graphql: Country not found"))
	assert.Equal(t, ErrorKindGraphQL, gql.Kind)
	assert.Equal(t, "Country not found", gql.Message)

	non200 := classifyError(errors.New("graphql: server returned a non-200 status code: 503"))
	assert.Equal(t, ErrorKindNetwork, non200.Kind)

	assert.Equal(t, ErrorKindNetwork, classifyError(context.DeadlineExceeded).Kind)
}
