package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/natefinch/lumberjack"

	"github.com/greyfall/ttvgate/global"
	"github.com/greyfall/ttvgate/handler"
	"github.com/greyfall/ttvgate/route"
	"github.com/greyfall/ttvgate/service"
)

func main() {
	listen := flag.String("listen", "", "listening address (overrides TTVGATE_LISTEN)")
	flag.Parse()

	cfg := global.LoadConfig()
	if *listen != "" {
		cfg.Listen = *listen
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.DataDir != "" {
		os.MkdirAll(cfg.DataDir, os.ModePerm)
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.DataDir + "/ttvgate.log",
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     1,    //days
			Compress:   true, // disabled by default
		}))
	}
	log.Println("Server listen", cfg.Listen)

	upstream := service.NewUpstream(service.DefaultIdentity, cfg.ProxyURL)
	resolver := service.NewResolver(upstream)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	// nothing below the handlers may crash the process, any stray panic
	// becomes a json 500
	router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log.Println("panic recovered:", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}))
	route.Register(router, handler.New(resolver, cfg))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Panicf("listen: %s\n", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shuting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Panicf("Server forced to shutdown: %s\n", err)
	}
	log.Println("Server exiting")
}
