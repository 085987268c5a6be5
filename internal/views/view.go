// Package views renders the demo views as plain text. Each view owns its
// local state and one live query; Render reads the latest query result and
// never blocks on the network.
package views

import (
	"context"
	"fmt"
	"strings"
)

const (
	loadingText = "Loading..."
	errorPrefix = "Error: "
)

// View is a mounted component of the page.
type View interface {
	// Render returns the view's current text.
	Render() string
	// Wait blocks until the view's query has settled.
	Wait(ctx context.Context) error
	// Close stops the view's query.
	Close()
}

type lines struct {
	b strings.Builder
}

func (l *lines) add(format string, args ...interface{}) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func (l *lines) String() string {
	return l.b.String()
}
