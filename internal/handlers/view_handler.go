package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/views"
)

// ViewHandler serves the mounted page and turns POSTs into view actions.
// Every action responds with the affected view; with ?wait=true the
// response is rendered once the view's query has settled.
type ViewHandler struct {
	page   *views.Page
	client *client.Client
}

// NewViewHandler returns a handler for page, whose views resolve through cl.
func NewViewHandler(page *views.Page, cl *client.Client) *ViewHandler {
	return &ViewHandler{page: page, client: cl}
}

// Page renders the whole page.
func (h *ViewHandler) Page(c *gin.Context) {
	if c.Query("wait") == "true" {
		if err := h.page.Wait(c.Request.Context()); err != nil {
			abortWith(c, http.StatusGatewayTimeout, err)
			return
		}
	}
	c.String(http.StatusOK, h.page.Render())
}

// View renders one view by name.
func (h *ViewHandler) View(c *gin.Context) {
	name := c.Param("name")
	v, ok := h.page.View(name)
	if !ok {
		abortWith(c, http.StatusNotFound, fmt.Errorf("unknown view %q", name))
		return
	}
	h.render(c, v)
}

// SetDetailCode handles the detail view's code input.
func (h *ViewHandler) SetDetailCode(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	h.page.Detail.SetCode(code)
	h.render(c, h.page.Detail)
}

// SetErrorsCode handles the error view's code input.
func (h *ViewHandler) SetErrorsCode(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	h.page.Errors.SetCode(code)
	h.render(c, h.page.Errors)
}

// RetryErrors handles the error view's retry control.
func (h *ViewHandler) RetryErrors(c *gin.Context) {
	h.page.Errors.Retry()
	h.render(c, h.page.Errors)
}

// RefetchCache handles the cache view's refetch control.
func (h *ViewHandler) RefetchCache(c *gin.Context) {
	h.page.Cache.Refetch()
	h.render(c, h.page.Cache)
}

// SetCachePolicy handles the cache view's policy controls.
func (h *ViewHandler) SetCachePolicy(c *gin.Context) {
	p, err := client.ParseFetchPolicy(c.Param("policy"))
	if err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	if err := h.page.Cache.SetPolicy(p); err != nil {
		abortWith(c, http.StatusBadRequest, err)
		return
	}
	h.render(c, h.page.Cache)
}

// CacheSnapshot dumps the normalized cache.
func (h *ViewHandler) CacheSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.CacheSnapshot())
}

// EvictCacheEntity removes one entity, e.g. DELETE /cache/Country:JP.
func (h *ViewHandler) EvictCacheEntity(c *gin.Context) {
	id := c.Param("id")
	if !h.client.Evict(id) {
		abortWith(c, http.StatusNotFound, fmt.Errorf("no cached entity %q", id))
		return
	}
	logging.Info("Cache entity evicted", map[string]interface{}{"id": id})
	c.Status(http.StatusNoContent)
}

// ResetCache empties the cache. Mounted views keep their current results.
func (h *ViewHandler) ResetCache(c *gin.Context) {
	h.client.ResetCache()
	logging.Info("Cache reset", nil)
	c.Status(http.StatusNoContent)
}

func (h *ViewHandler) render(c *gin.Context, v views.View) {
	if c.Query("wait") == "true" {
		if err := v.Wait(c.Request.Context()); err != nil {
			abortWith(c, http.StatusGatewayTimeout, err)
			return
		}
	}
	c.String(http.StatusOK, v.Render())
}

func codeParam(c *gin.Context) (string, bool) {
	code := c.PostForm("code")
	if code == "" {
		code = c.Query("code")
	}
	if code == "" {
		abortWith(c, http.StatusBadRequest, errors.New("missing code"))
		return "", false
	}
	logging.Debug("Country code input", map[string]interface{}{"path": c.FullPath(), "code": code})
	return code, true
}
