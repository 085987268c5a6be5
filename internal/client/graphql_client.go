package client

import (
	"context"
	"net/http"

	"github.com/machinebox/graphql"

	"github.com/lablabs/countries-explorer/internal/logging"
)

// GraphQLClient represents a client for interacting with GraphQL APIs.
type GraphQLClient struct {
	client   *graphql.Client
	endpoint string
}

// NewGraphQLClient creates and returns a new GraphQLClient for the specified endpoint.
func NewGraphQLClient(endpoint string, httpClient *http.Client) *GraphQLClient {
	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	client.Log = func(s string) {
		logging.Debug(s, map[string]interface{}{"endpoint": endpoint})
	}
	return &GraphQLClient{client: client, endpoint: endpoint}
}

// Query executes a GraphQL query. The returned data holds whatever the
// response carried, also when err reports a GraphQL execution error.
func (g *GraphQLClient) Query(ctx context.Context, query string, vars map[string]interface{}) (map[string]interface{}, error) {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}

	var data map[string]interface{}
	err := g.client.Run(ctx, req, &data)
	return data, err
}
