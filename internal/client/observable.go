package client

import (
	"context"
	"sync"
	"time"

	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/metrics"
)

// WatchOptions configures an ObservableQuery.
type WatchOptions struct {
	Variables   map[string]interface{}
	FetchPolicy FetchPolicy
	ErrorPolicy ErrorPolicy
	// NotifyOnNetworkStatusChange exposes the fine-grained pending status
	// (setVariables, refetch, poll). Without it every pending phase reports
	// NetworkStatusLoading.
	NotifyOnNetworkStatusChange bool
	// OnError is called once per failed resolution. It must not call back
	// into the ObservableQuery synchronously.
	OnError func(error)
	// PollInterval starts polling right away when positive.
	PollInterval time.Duration
}

// ObservableQuery is a live query: it holds the latest Result and
// re-resolves on refetch, variable or policy changes. Results of superseded
// resolutions are discarded.
type ObservableQuery[R any] struct {
	client *Client
	query  Query[R]

	mu          sync.Mutex
	vars        map[string]interface{}
	policy      FetchPolicy
	errorPolicy ErrorPolicy
	notify      bool
	onError     func(error)
	generation  uint64
	result      Result[R]
	changed     chan struct{}
	subscribers map[int]func(Result[R])
	nextSubID   int
	stopPoll    chan struct{}
	closed      bool
}

// Watch starts resolving q and returns the live query.
func Watch[R any](c *Client, q Query[R], opts WatchOptions) *ObservableQuery[R] {
	o := &ObservableQuery[R]{
		client:      c,
		query:       q,
		vars:        copyVars(opts.Variables),
		policy:      opts.FetchPolicy.orDefault(),
		errorPolicy: opts.ErrorPolicy,
		notify:      opts.NotifyOnNetworkStatusChange,
		onError:     opts.OnError,
		changed:     make(chan struct{}),
		subscribers: make(map[int]func(Result[R])),
	}
	o.execute(NetworkStatusLoading, false)
	if opts.PollInterval > 0 {
		o.StartPolling(opts.PollInterval)
	}
	return o
}

// Current returns the latest result.
func (o *ObservableQuery[R]) Current() Result[R] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Variables returns a copy of the current variables.
func (o *ObservableQuery[R]) Variables() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyVars(o.vars)
}

// FetchPolicy returns the current fetch policy.
func (o *ObservableQuery[R]) FetchPolicy() FetchPolicy {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.policy
}

// Refetch re-resolves the current query and variables. The current policy
// decides the source: CacheOnly re-reads the cache, NoCache fetches without
// caching, any other policy goes to the network.
func (o *ObservableQuery[R]) Refetch() {
	o.execute(NetworkStatusRefetch, true)
}

// SetVariables replaces the variables and re-resolves.
func (o *ObservableQuery[R]) SetVariables(vars map[string]interface{}) {
	o.mu.Lock()
	o.vars = copyVars(vars)
	o.mu.Unlock()

	o.execute(NetworkStatusSetVariables, false)
}

// SetFetchPolicy switches the policy and re-resolves under it.
func (o *ObservableQuery[R]) SetFetchPolicy(p FetchPolicy) {
	o.mu.Lock()
	o.policy = p.orDefault()
	o.mu.Unlock()

	o.execute(NetworkStatusRefetch, false)
}

// Subscribe registers fn for every settled or pending result. The returned
// function unregisters it.
func (o *ObservableQuery[R]) Subscribe(fn func(Result[R])) func() {
	o.mu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}
}

// Wait blocks until the query is no longer loading and returns the result.
func (o *ObservableQuery[R]) Wait(ctx context.Context) (Result[R], error) {
	for {
		o.mu.Lock()
		res, ch := o.result, o.changed
		o.mu.Unlock()

		if !res.Loading {
			return res, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// StartPolling refetches every interval until StopPolling or Close.
func (o *ObservableQuery[R]) StartPolling(interval time.Duration) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.stopPoll != nil {
		close(o.stopPoll)
	}
	stop := make(chan struct{})
	o.stopPoll = stop
	o.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.execute(NetworkStatusPoll, true)
			}
		}
	}()
}

// StopPolling stops a running poll loop.
func (o *ObservableQuery[R]) StopPolling() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopPoll != nil {
		close(o.stopPoll)
		o.stopPoll = nil
	}
}

// Close stops polling and discards any outstanding resolution.
func (o *ObservableQuery[R]) Close() {
	o.StopPolling()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.generation++
}

func (o *ObservableQuery[R]) execute(status NetworkStatus, refetch bool) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.generation++
	gen := o.generation
	doc := o.query.doc
	req := Request{
		Document:    doc,
		Variables:   doc.withDefaults(o.vars),
		FetchPolicy: o.policy,
		ErrorPolicy: o.errorPolicy,
	}
	o.mu.Unlock()

	if err := doc.ValidateVariables(req.Variables); err != nil {
		o.complete(gen, Response{Err: err})
		return
	}

	policy := req.FetchPolicy
	if refetch {
		policy = refetchPolicy(policy)
	}

	var cached *R
	if policy.readsCache() {
		data, hit := o.client.readCache(req)
		switch {
		case hit && policy != CacheAndNetwork:
			o.complete(gen, Response{Data: data, Source: SourceCache})
			return
		case !hit && policy == CacheOnly:
			o.complete(gen, Response{Source: SourceCache})
			return
		case hit:
			cached, _ = decodeData[R](data)
		}
	}

	o.pending(gen, status, cached)

	req.FetchPolicy = NetworkOnly
	if policy == NoCache {
		req.FetchPolicy = NoCache
	}
	ok := o.client.submit(func() {
		o.complete(gen, o.client.fetch(context.Background(), req))
	})
	if !ok {
		o.complete(gen, Response{Err: &QueryError{Kind: ErrorKindNetwork, Message: ErrClientClosed.Error(), Err: ErrClientClosed}})
	}
}

// pending publishes the loading state of generation gen. Data survives a
// refetch or poll; cached carries the first emission of CacheAndNetwork.
func (o *ObservableQuery[R]) pending(gen uint64, status NetworkStatus, cached *R) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return
	}
	visible := status
	if !o.notify {
		visible = NetworkStatusLoading
	}
	next := Result[R]{Loading: true, NetworkStatus: visible}
	switch {
	case cached != nil:
		next.Data = cached
		next.Source = SourceCache
	case status == NetworkStatusRefetch || status == NetworkStatusPoll:
		next.Data = o.result.Data
		next.Source = o.result.Source
	}
	o.publishLocked(next)
}

func (o *ObservableQuery[R]) complete(gen uint64, resp Response) {
	res := toResult[R](resp)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		metrics.IncStaleResult(o.query.Name())
		logging.Debug("Discarding stale result", map[string]interface{}{
			"operation":  o.query.Name(),
			"generation": gen,
		})
		return
	}
	onError := o.onError
	o.publishLocked(res)

	if res.Err != nil && onError != nil {
		onError(res.Err)
	}
}

// publishLocked stores res, wakes waiters and notifies subscribers. It is
// called with o.mu held and releases it.
func (o *ObservableQuery[R]) publishLocked(res Result[R]) {
	o.result = res
	close(o.changed)
	o.changed = make(chan struct{})

	subs := make([]func(Result[R]), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
}

func copyVars(vars map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
