// Package client resolves GraphQL queries against a single endpoint through
// a normalized cache, under per-query fetch and error policies.
//
// A Client is constructed once per process and passed to every view that
// needs it. Views use Watch to obtain an ObservableQuery, which resolves
// asynchronously and publishes Result values as the query moves between
// pending, failed and succeeded.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"golang.org/x/sync/singleflight"

	"github.com/lablabs/countries-explorer/internal/cache"
	"github.com/lablabs/countries-explorer/internal/limiter"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/metrics"
)

// DefaultEndpoint is the public countries API.
const DefaultEndpoint = "https://countries.trevorblades.com/graphql"

// Options configures a Client.
type Options struct {
	Endpoint string
	// Transport is the underlying round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
	// RateLimit in requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// RequestTimeout bounds each network request; zero means no timeout.
	RequestTimeout time.Duration
	// MaxInflight bounds concurrent asynchronous resolutions.
	MaxInflight int
	// DisableDeduplication sends identical concurrent requests separately.
	DisableDeduplication bool
	// KeyFields overrides cache.DefaultKeyFields.
	KeyFields map[string]string
}

// Client is the process-wide query resolver.
type Client struct {
	gql       *GraphQLClient
	transport *Transport
	store     *cache.Store
	pool      *workerpool.WorkerPool
	flight    singleflight.Group
	dedupe    bool
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
}

// Request is one resolution of a document.
type Request struct {
	Document    *Document
	Variables   map[string]interface{}
	FetchPolicy FetchPolicy
	ErrorPolicy ErrorPolicy
}

// Response is the untyped outcome of Resolve.
type Response struct {
	Data   map[string]interface{}
	Err    error
	Source Source
}

type networkResult struct {
	data map[string]interface{}
	err  *QueryError
}

// New returns a Client. Close must be called to release its workers.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.MaxInflight < 1 {
		opts.MaxInflight = 4
	}

	transport := NewTransport(opts.Transport, limiter.New(opts.RateLimit, opts.RateBurst))
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.RequestTimeout,
	}

	logging.Info("GraphQL client initialized", map[string]interface{}{
		"endpoint":     opts.Endpoint,
		"max_inflight": opts.MaxInflight,
		"rate_limit":   opts.RateLimit,
	})

	return &Client{
		gql:       NewGraphQLClient(opts.Endpoint, httpClient),
		transport: transport,
		store:     cache.NewStore(opts.KeyFields),
		pool:      workerpool.New(opts.MaxInflight),
		dedupe:    !opts.DisableDeduplication,
		timeout:   opts.RequestTimeout,
	}
}

// Close waits for queued resolutions and stops the workers. Resolutions
// requested afterwards fail with ErrClientClosed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.pool.StopWait()
}

// Calls returns the number of HTTP round trips issued.
func (c *Client) Calls() int64 {
	return c.transport.Calls()
}

// CacheSnapshot returns a JSON-friendly copy of the normalized cache.
func (c *Client) CacheSnapshot() map[string]interface{} {
	return c.store.Extract()
}

// Evict removes one entity from the cache.
func (c *Client) Evict(id string) bool {
	ok := c.store.Evict(id)
	metrics.SetCacheEntities(c.store.Size())
	return ok
}

// ResetCache empties the cache.
func (c *Client) ResetCache() {
	c.store.Reset()
	metrics.SetCacheEntities(0)
}

// Resolve resolves req synchronously. PreferCache and CacheOnly consult the
// cache first; CacheOnly yields an empty result on a miss. CacheAndNetwork
// behaves like PreferCache here, its second emission belongs to Watch.
func (c *Client) Resolve(ctx context.Context, req Request) Response {
	if err := req.Document.ValidateVariables(req.Variables); err != nil {
		return Response{Err: err}
	}
	req.Variables = req.Document.withDefaults(req.Variables)
	req.FetchPolicy = req.FetchPolicy.orDefault()

	if req.FetchPolicy.readsCache() {
		if data, ok := c.readCache(req); ok {
			return Response{Data: data, Source: SourceCache}
		}
		if req.FetchPolicy == CacheOnly {
			return Response{Source: SourceCache}
		}
	}
	return c.fetch(ctx, req)
}

func (c *Client) readCache(req Request) (map[string]interface{}, bool) {
	data, ok := c.store.Read(req.Document.cacheQuery(req.Variables))
	metrics.ObserveCacheRead(req.Document.Name, ok)
	return data, ok
}

func (c *Client) fetch(ctx context.Context, req Request) Response {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	run := func() (interface{}, error) {
		return c.execute(ctx, req), nil
	}

	var res networkResult
	if c.dedupe {
		v, _, shared := c.flight.Do(requestKey(req), run)
		if shared {
			metrics.IncDedupedRequest(req.Document.Name)
		}
		res = v.(networkResult)
	} else {
		v, _ := run()
		res = v.(networkResult)
	}

	if res.data != nil && req.FetchPolicy != NoCache && c.writable(res.err, req.ErrorPolicy) {
		q := req.Document.cacheQuery(req.Variables)
		if res.err == nil || req.ErrorPolicy == ErrorPolicyIgnore {
			c.store.Write(q, res.data)
		} else {
			// an errored result must not turn into an error-free hit later
			c.store.WriteEntities(q, res.data)
		}
		metrics.SetCacheEntities(c.store.Size())
	}

	resp := Response{Data: res.data, Source: SourceNetwork}
	if res.err == nil {
		return resp
	}
	if res.err.Kind != ErrorKindGraphQL {
		return Response{Err: res.err, Source: SourceNetwork}
	}
	switch req.ErrorPolicy {
	case ErrorPolicyIgnore:
	case ErrorPolicyAll:
		resp.Err = res.err
	default:
		resp.Err = res.err
		resp.Data = nil
	}
	return resp
}

func (c *Client) writable(err *QueryError, policy ErrorPolicy) bool {
	if err == nil {
		return true
	}
	return err.Kind == ErrorKindGraphQL && policy != "" && policy != ErrorPolicyNone
}

func (c *Client) execute(ctx context.Context, req Request) networkResult {
	start := time.Now()
	data, err := c.gql.Query(ctx, req.Document.Printed, req.Variables)
	qerr := classifyError(err)
	took := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if qerr != nil {
		outcome = metrics.OutcomeNetworkError
		if qerr.Kind == ErrorKindGraphQL {
			outcome = metrics.OutcomeGraphQLError
		}
	}
	metrics.ObserveGraphQLRequest(req.Document.Name, outcome, took)

	fields := map[string]interface{}{
		"operation": req.Document.Name,
		"variables": req.Variables,
		"outcome":   outcome,
		"took":      took.String(),
	}
	if qerr != nil {
		fields["error"] = qerr.Message
	}
	logging.Debug("GraphQL request finished", fields)

	return networkResult{data: data, err: qerr}
}

// submit queues task on the worker pool. It reports false after Close.
func (c *Client) submit(task func()) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	c.pool.Submit(task)
	return true
}

func requestKey(req Request) string {
	vars, err := json.Marshal(req.Variables)
	if err != nil {
		vars = nil
	}
	return req.Document.Printed + "\x00" + string(vars)
}
