package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lablabs/countries-explorer/internal/client/clienttest"
)

func waitSettled[R any](t *testing.T, o *ObservableQuery[R]) Result[R] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := o.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestWatch_PendingThenSucceeded(t *testing.T) {
	c, api := newTestClient(t)
	release := api.Hold("JP")

	o := Watch(c, getCountry, WatchOptions{Variables: vars("JP")})
	defer o.Close()

	cur := o.Current()
	assert.True(t, cur.Loading)
	assert.Equal(t, NetworkStatusLoading, cur.NetworkStatus)
	assert.Nil(t, cur.Data)

	release()
	res := waitSettled(t, o)
	assert.False(t, res.Loading)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Data.Country)
	assert.NotEmpty(t, res.Data.Country.Name)
	assert.Equal(t, NetworkStatusReady, res.NetworkStatus)
}

func TestWatch_SupersededResultIsDiscarded(t *testing.T) {
	c, api := newTestClient(t)
	releaseJP := api.Hold("JP")

	o := Watch(c, getCountry, WatchOptions{Variables: vars("JP")})
	defer o.Close()

	o.SetVariables(vars("FR"))
	res := waitSettled(t, o)
	require.NotNil(t, res.Data.Country)
	assert.Equal(t, "France", res.Data.Country.Name)

	// let the JP response land and wait for the pool to drain
	releaseJP()
	c.Close()

	assert.Equal(t, "France", o.Current().Data.Country.Name)
}

func TestWatch_CacheOnlyAfterPreferCacheSkipsNetwork(t *testing.T) {
	c, api := newTestClient(t)

	o := Watch(c, getCountries, WatchOptions{NotifyOnNetworkStatusChange: true})
	defer o.Close()
	first := waitSettled(t, o)
	require.NoError(t, first.Err)
	require.Equal(t, 1, api.Calls())

	o.SetFetchPolicy(CacheOnly)
	cur := o.Current()
	assert.False(t, cur.Loading)
	assert.Equal(t, SourceCache, cur.Source)
	assert.Len(t, cur.Data.Countries, len(clienttest.Countries))
	assert.Equal(t, 1, api.Calls())

	o.Refetch()
	assert.Equal(t, 1, api.Calls())
	assert.Equal(t, CacheOnly, o.FetchPolicy())
}

func TestWatch_RefetchStatus(t *testing.T) {
	for _, notify := range []bool{true, false} {
		c, api := newTestClient(t)

		o := Watch(c, getCountries, WatchOptions{NotifyOnNetworkStatusChange: notify})
		waitSettled(t, o)

		release := api.Hold(clienttest.ListKey)
		o.Refetch()
		cur := o.Current()
		assert.True(t, cur.Loading)
		assert.NotNil(t, cur.Data, "data survives a refetch")
		if notify {
			assert.Equal(t, NetworkStatusRefetch, cur.NetworkStatus)
		} else {
			assert.Equal(t, NetworkStatusLoading, cur.NetworkStatus)
		}

		release()
		res := waitSettled(t, o)
		assert.Equal(t, NetworkStatusReady, res.NetworkStatus)
		assert.Equal(t, 2, api.Calls())
		o.Close()
	}
}

func TestWatch_RetryAfterFailureReentersPending(t *testing.T) {
	c, api := newTestClient(t)

	var mu sync.Mutex
	var reported []error
	o := Watch(c, getCountryShort, WatchOptions{
		Variables:   vars("INVALID"),
		ErrorPolicy: ErrorPolicyAll,
		OnError: func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		},
	})
	defer o.Close()

	res := waitSettled(t, o)
	require.Error(t, res.Err)
	assert.Equal(t, NetworkStatusError, res.NetworkStatus)

	release := api.Hold("INVALID")
	o.Refetch()
	cur := o.Current()
	assert.True(t, cur.Loading)
	assert.NoError(t, cur.Err)

	release()
	res = waitSettled(t, o)
	require.Error(t, res.Err)
	assert.Equal(t, 2, api.Calls())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatch_CacheAndNetwork(t *testing.T) {
	c, api := newTestClient(t)
	Execute(context.Background(), c, getCountries, Request{})

	release := api.Hold(clienttest.ListKey)
	o := Watch(c, getCountries, WatchOptions{FetchPolicy: CacheAndNetwork})
	defer o.Close()

	cur := o.Current()
	assert.True(t, cur.Loading)
	assert.Equal(t, SourceCache, cur.Source)
	require.NotNil(t, cur.Data)

	release()
	res := waitSettled(t, o)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.Equal(t, 2, api.Calls())
}

func TestWatch_Subscribe(t *testing.T) {
	c, _ := newTestClient(t)

	var mu sync.Mutex
	var seen []bool
	o := Watch(c, getCountries, WatchOptions{FetchPolicy: NetworkOnly})
	defer o.Close()
	unsubscribe := o.Subscribe(func(r Result[countriesData]) {
		mu.Lock()
		seen = append(seen, r.Loading)
		mu.Unlock()
	})
	waitSettled(t, o)

	o.Refetch()
	waitSettled(t, o)
	unsubscribe()
	o.Refetch()
	waitSettled(t, o)

	// refetch pending + settled, and possibly the initial settle
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2 && !seen[len(seen)-1]
	}, time.Second, 5*time.Millisecond)
}

func TestWatch_Polling(t *testing.T) {
	c, api := newTestClient(t)

	o := Watch(c, getCountries, WatchOptions{PollInterval: 10 * time.Millisecond})
	assert.Eventually(t, func() bool { return api.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	o.StopPolling()
	o.Close()
}

func TestWatch_ValidationError(t *testing.T) {
	c, api := newTestClient(t)

	o := Watch(c, getCountry, WatchOptions{})
	defer o.Close()

	res := o.Current()
	assert.False(t, res.Loading)
	assert.True(t, IsKind(res.Err, ErrorKindValidation))
	assert.Equal(t, 0, api.Calls())
}

func TestWatch_AfterClientClose(t *testing.T) {
	c, _ := newTestClient(t)
	c.Close()

	o := Watch(c, getCountries, WatchOptions{FetchPolicy: NetworkOnly})
	defer o.Close()

	res := o.Current()
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrClientClosed))
}
