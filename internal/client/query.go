package client

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Query is a typed query descriptor: a parsed document whose data decodes
// into R.
type Query[R any] struct {
	doc *Document
}

// NewQuery parses src into a descriptor for result shape R.
func NewQuery[R any](src string) (Query[R], error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return Query[R]{}, err
	}
	return Query[R]{doc: doc}, nil
}

// MustQuery is like NewQuery but panics on an invalid document. It is meant
// for package-level query declarations.
func MustQuery[R any](src string) Query[R] {
	q, err := NewQuery[R](src)
	if err != nil {
		panic(fmt.Sprintf("client: invalid query: %v", err))
	}
	return q
}

// Document returns the parsed document.
func (q Query[R]) Document() *Document {
	return q.doc
}

// Name returns the operation name.
func (q Query[R]) Name() string {
	return q.doc.Name
}

// Result is the tri-state outcome of a query as seen by a view: pending
// while Loading, failed when Err is set, succeeded when Data is set. Under
// ErrorPolicyAll Err and Data may both be set.
type Result[R any] struct {
	Data          *R
	Err           error
	Loading       bool
	NetworkStatus NetworkStatus
	Source        Source
}

// Execute resolves q once and decodes the result.
func Execute[R any](ctx context.Context, c *Client, q Query[R], req Request) Result[R] {
	req.Document = q.doc
	return toResult[R](c.Resolve(ctx, req))
}

func toResult[R any](resp Response) Result[R] {
	res := Result[R]{Err: resp.Err, Source: resp.Source, NetworkStatus: NetworkStatusReady}
	data, err := decodeData[R](resp.Data)
	if err != nil && res.Err == nil {
		res.Err = err
	}
	res.Data = data
	if res.Err != nil {
		res.NetworkStatus = NetworkStatusError
	}
	return res
}

func decodeData[R any](data map[string]interface{}) (*R, error) {
	if data == nil {
		return nil, nil
	}
	var out R
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, &QueryError{Kind: ErrorKindDecode, Message: err.Error(), Err: err}
	}
	if err := dec.Decode(data); err != nil {
		return nil, &QueryError{Kind: ErrorKindDecode, Message: fmt.Sprintf("decode result: %v", err), Err: err}
	}
	return &out, nil
}
