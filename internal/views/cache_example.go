package views

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/models"
)

const lastFetchLayout = "15:04:05"

var networkStatusText = map[client.NetworkStatus]string{
	client.NetworkStatusLoading:      "loading (initial load)",
	client.NetworkStatusSetVariables: "setVariables (variables changing)",
	client.NetworkStatusFetchMore:    "fetchMore (fetching more)",
	client.NetworkStatusRefetch:      "refetch (refetching)",
	client.NetworkStatusPoll:         "poll (polling)",
	client.NetworkStatusReady:        "ready (ready)",
	client.NetworkStatusError:        "error (error)",
}

// NetworkStatusText labels a network status for display.
func NetworkStatusText(status client.NetworkStatus) string {
	if text, ok := networkStatusText[status]; ok {
		return text
	}
	return fmt.Sprintf("unknown(%d)", int(status))
}

// CacheExample demonstrates fetch policies on the countries list.
type CacheExample struct {
	mu        sync.Mutex
	policy    client.FetchPolicy
	lastFetch time.Time
	now       func() time.Time

	query *client.ObservableQuery[models.CountriesResponse]
}

// NewCacheExample mounts the view with the prefer-cache policy.
func NewCacheExample(c *client.Client) *CacheExample {
	return newCacheExample(c, time.Now)
}

func newCacheExample(c *client.Client, now func() time.Time) *CacheExample {
	return &CacheExample{
		policy:    client.PreferCache,
		lastFetch: now(),
		now:       now,
		query: client.Watch(c, models.GetCountriesLimited, client.WatchOptions{
			FetchPolicy:                 client.PreferCache,
			NotifyOnNetworkStatusChange: true,
		}),
	}
}

// Refetch re-resolves under the current policy.
func (v *CacheExample) Refetch() {
	logging.Info("Refetching countries", map[string]interface{}{"policy": v.Policy()})
	v.touch()
	v.query.Refetch()
}

// SetPolicy switches to one of prefer-cache, network-only or cache-only and
// re-resolves.
func (v *CacheExample) SetPolicy(p client.FetchPolicy) error {
	switch p {
	case client.PreferCache, client.NetworkOnly, client.CacheOnly:
	default:
		return fmt.Errorf("policy %q is not offered by this view", p)
	}
	logging.Info("Switching fetch policy", map[string]interface{}{"policy": p})

	v.mu.Lock()
	v.policy = p
	v.lastFetch = v.now()
	v.mu.Unlock()

	v.query.SetFetchPolicy(p)
	return nil
}

// Policy returns the selected fetch policy.
func (v *CacheExample) Policy() client.FetchPolicy {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.policy
}

func (v *CacheExample) touch() {
	v.mu.Lock()
	v.lastFetch = v.now()
	v.mu.Unlock()
}

// Render implements View.
func (v *CacheExample) Render() string {
	var out lines
	res := v.query.Current()
	if res.Loading && res.NetworkStatus != client.NetworkStatusRefetch {
		out.add("%s (NetworkStatus: %s)", loadingText, NetworkStatusText(res.NetworkStatus))
		return out.String()
	}
	if res.Err != nil {
		out.add(errorPrefix+"%s", res.Err.Error())
		return out.String()
	}

	count := 0
	if res.Data != nil {
		count = len(res.Data.Countries)
	}

	v.mu.Lock()
	policy, lastFetch := v.policy, v.lastFetch
	v.mu.Unlock()

	out.add("Cache behaviour")
	out.add("[refetch] [%s] [%s] [%s]", client.PreferCache, client.NetworkOnly, client.CacheOnly)
	out.add("  Current fetch policy: %s", policy)
	out.add("  Countries fetched: %d", count)
	out.add("  Network status: %s", NetworkStatusText(res.NetworkStatus))
	out.add("  Last fetch: %s", lastFetch.Format(lastFetchLayout))
	return out.String()
}

// Wait implements View.
func (v *CacheExample) Wait(ctx context.Context) error {
	_, err := v.query.Wait(ctx)
	return err
}

// Close implements View.
func (v *CacheExample) Close() {
	v.query.Close()
}
