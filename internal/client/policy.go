package client

import (
	"fmt"
	"strconv"
)

// FetchPolicy selects whether a query is served from the cache, the network
// or both.
type FetchPolicy string

const (
	// PreferCache serves from the cache and falls back to the network on a miss.
	PreferCache FetchPolicy = "prefer-cache"
	// NetworkOnly always fetches and writes the result to the cache.
	NetworkOnly FetchPolicy = "network-only"
	// CacheOnly never touches the network.
	CacheOnly FetchPolicy = "cache-only"
	// NoCache always fetches and does not write the result to the cache.
	NoCache FetchPolicy = "no-cache"
	// CacheAndNetwork publishes a cached result first, then fetches.
	CacheAndNetwork FetchPolicy = "cache-and-network"
)

// ParseFetchPolicy parses s. "cache-first" is accepted for PreferCache.
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch p := FetchPolicy(s); p {
	case PreferCache, NetworkOnly, CacheOnly, NoCache, CacheAndNetwork:
		return p, nil
	case "cache-first":
		return PreferCache, nil
	}
	return "", fmt.Errorf("unknown fetch policy %q", s)
}

func (p FetchPolicy) readsCache() bool {
	return p == PreferCache || p == CacheOnly || p == CacheAndNetwork
}

func (p FetchPolicy) orDefault() FetchPolicy {
	if p == "" {
		return PreferCache
	}
	return p
}

// refetchPolicy is the policy an explicit refetch runs under.
func refetchPolicy(p FetchPolicy) FetchPolicy {
	switch p {
	case CacheOnly, NoCache:
		return p
	}
	return NetworkOnly
}

// ErrorPolicy governs how GraphQL errors and partial data are reported.
// Network errors are always reported and never carry data.
type ErrorPolicy string

const (
	// ErrorPolicyNone reports the error and discards any data.
	ErrorPolicyNone ErrorPolicy = "none"
	// ErrorPolicyAll reports the error alongside whatever data came back.
	ErrorPolicyAll ErrorPolicy = "all"
	// ErrorPolicyIgnore drops the error and keeps the data.
	ErrorPolicyIgnore ErrorPolicy = "ignore"
)

// NetworkStatus is the fine-grained phase of a query.
type NetworkStatus int

const (
	NetworkStatusLoading      NetworkStatus = 1
	NetworkStatusSetVariables NetworkStatus = 2
	NetworkStatusFetchMore    NetworkStatus = 3
	NetworkStatusRefetch      NetworkStatus = 4
	NetworkStatusPoll         NetworkStatus = 6
	NetworkStatusReady        NetworkStatus = 7
	NetworkStatusError        NetworkStatus = 8
)

func (s NetworkStatus) String() string {
	switch s {
	case NetworkStatusLoading:
		return "loading"
	case NetworkStatusSetVariables:
		return "setVariables"
	case NetworkStatusFetchMore:
		return "fetchMore"
	case NetworkStatusRefetch:
		return "refetch"
	case NetworkStatusPoll:
		return "poll"
	case NetworkStatusReady:
		return "ready"
	case NetworkStatusError:
		return "error"
	}
	return strconv.Itoa(int(s))
}

// InFlight reports whether s is a pending phase.
func (s NetworkStatus) InFlight() bool {
	return s > 0 && s < NetworkStatusReady
}

// Source tells where a result came from.
type Source string

const (
	SourceNone    Source = ""
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)
