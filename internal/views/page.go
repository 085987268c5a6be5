package views

import (
	"context"
	"strings"

	"github.com/lablabs/countries-explorer/internal/client"
)

// View names as used by the HTTP routes.
const (
	ListView   = "list"
	DetailView = "detail"
	CacheView  = "cache"
	ErrorsView = "errors"
)

const pageTitle = "GraphQL Client Tutorial"

// Page is the root composition mounting every view.
type Page struct {
	List   *CountryList
	Detail *CountryDetail
	Cache  *CacheExample
	Errors *ErrorExample
}

// NewPage mounts all views on c.
func NewPage(c *client.Client) *Page {
	return &Page{
		Detail: NewCountryDetail(c),
		Cache:  NewCacheExample(c),
		Errors: NewErrorExample(c),
		List:   NewCountryList(c),
	}
}

// View looks a view up by name.
func (p *Page) View(name string) (View, bool) {
	switch name {
	case ListView:
		return p.List, true
	case DetailView:
		return p.Detail, true
	case CacheView:
		return p.Cache, true
	case ErrorsView:
		return p.Errors, true
	}
	return nil, false
}

func (p *Page) views() []View {
	return []View{p.Detail, p.Cache, p.Errors, p.List}
}

// Render renders every view under the page title.
func (p *Page) Render() string {
	var b strings.Builder
	b.WriteString(pageTitle + "\n")
	b.WriteString(strings.Repeat("=", len(pageTitle)) + "\n")
	for _, v := range p.views() {
		b.WriteString("\n")
		b.WriteString(v.Render())
	}
	return b.String()
}

// Wait blocks until every view has settled.
func (p *Page) Wait(ctx context.Context) error {
	for _, v := range p.views() {
		if err := v.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close unmounts every view.
func (p *Page) Close() {
	for _, v := range p.views() {
		v.Close()
	}
}
