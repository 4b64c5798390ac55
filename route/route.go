package route

import (
	"github.com/gin-gonic/gin"

	"github.com/greyfall/ttvgate/handler"
)

func Register(r *gin.Engine, h *handler.Handler) {
	r.Use(handler.CORS())
	r.OPTIONS("/*path", handler.OptionsHandler)

	r.GET("/api/get-live", h.GetLive)
	r.GET("/api/get-m3u8", h.GetM3U8)
	r.GET("/api/get-channel-videos", h.GetChannelVideos)
	r.GET("/api/proxy", h.Proxy)
}
