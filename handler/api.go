package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greyfall/ttvgate/global"
	"github.com/greyfall/ttvgate/service"
)

type Handler struct {
	Resolver *service.Resolver
	Config   *global.Config

	segments *http.Client
}

func New(resolver *service.Resolver, cfg *global.Config) *Handler {
	return &Handler{
		Resolver: resolver,
		Config:   cfg,
		// no overall timeout here: segment bodies stream for as long as
		// the client keeps reading, the inbound context handles aborts
		segments: &http.Client{Transport: global.TransportWithProxy(cfg.ProxyURL)},
	}
}

func statusFor(err error) int {
	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) GetLive(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing channel name"})
		return
	}
	stream, err := h.Resolver.ResolveLive(c.Request.Context(), name)
	if err != nil {
		log.Println("get-live:", err)
		c.JSON(statusFor(err), ErrorResponse{Error: "offline or invalid"})
		return
	}
	c.JSON(http.StatusOK, LiveResponse{
		Links: stream.Links,
		Best:  stream.Best,
		Title: stream.Title,
		Game:  stream.Game,
	})
}

func (h *Handler) GetM3U8(c *gin.Context) {
	videoID := c.Query("id")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing video id"})
		return
	}
	stream, err := h.Resolver.ResolveVideo(c.Request.Context(), videoID)
	if err != nil {
		log.Println("get-m3u8:", err)
		c.JSON(statusFor(err), ErrorResponse{Error: "VOD not found or subscriber-only"})
		return
	}
	c.JSON(http.StatusOK, VodResponse{
		Links: stream.Links,
		Best:  stream.Best,
		Info:  stream.Info,
	})
}

func (h *Handler) GetChannelVideos(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing channel name"})
		return
	}
	videos, page, err := h.Resolver.ChannelVideos(c.Request.Context(), name, c.Query("cursor"))
	if err != nil {
		log.Println("get-channel-videos:", err)
		c.JSON(statusFor(err), ErrorResponse{Error: "channel not found or no archives"})
		return
	}
	c.JSON(http.StatusOK, VideosResponse{Videos: videos, Pagination: *page})
}
