package handler

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greyfall/ttvgate/service"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	defaultSegmentType  = "video/MP2T"
)

// proxyBase rebuilds the absolute url of this endpoint so rewritten
// playlists re-enter the same instance the client is already talking
// to.
func proxyBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host + "/api/proxy"
}

// Proxy relays an upstream resource. Playlists are fetched as text and
// rewritten so the client keeps coming back through us; everything else
// streams through untouched apart from header normalization.
func (h *Handler) Proxy(c *gin.Context) {
	targetURL := c.Query("url")
	if targetURL == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing url"})
		return
	}
	isVod := c.Query("isVod") == "true" || strings.Contains(targetURL, "/vod/")
	if strings.Contains(targetURL, ".m3u8") {
		h.relayPlaylist(c, targetURL, isVod)
		return
	}
	h.relaySegment(c, targetURL)
}

func (h *Handler) relayPlaylist(c *gin.Context, targetURL string, isVod bool) {
	// the post-redirect url is the base for relative entries
	body, finalURL, status, err := h.Resolver.Upstream.FetchText(c.Request.Context(), targetURL)
	if err != nil {
		log.Println("proxy playlist:", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream fetch failed"})
		return
	}
	if status != http.StatusOK {
		c.String(status, body)
		return
	}
	rewritten := service.Rewrite(body, finalURL, service.RewriteOptions{
		ProxyBase:  proxyBase(c),
		IsVod:      isVod,
		ForceProxy: h.Config.ForceProxy,
	})
	c.Data(http.StatusOK, playlistContentType, []byte(rewritten))
}

func (h *Handler) relaySegment(c *gin.Context, targetURL string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, targetURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid url"})
		return
	}
	identity := h.Resolver.Upstream.Identity
	req.Header.Set("User-Agent", identity.UserAgent)
	req.Header.Set("Referer", identity.Referer)
	req.Header.Set("Origin", identity.Origin)
	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := h.segments.Do(req)
	if err != nil {
		log.Println("proxy segment:", err)
		c.AbortWithStatus(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultSegmentType
	}
	c.Header("Content-Type", contentType)
	for _, key := range []string{"Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(key); v != "" {
			c.Header(key, v)
		}
	}
	c.Status(resp.StatusCode)
	io.Copy(c.Writer, resp.Body)
}
