package global

import (
	"os"
	"time"
)

// HttpClientTimeout bounds every single outbound call (token issuance,
// manifest fetch, quality probe). A stalled upstream fails that one
// call, never the whole process.
var HttpClientTimeout = 5 * time.Second

// Config holds the process-wide settings. All values are fixed at
// startup and injected into the components that need them.
type Config struct {
	Listen     string // listening address
	DataDir    string // log directory
	ProxyURL   string // optional outbound proxy (socks5://, connect://, ...)
	ForceProxy bool   // relay live segments too, instead of linking them directly
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func LoadConfig() *Config {
	return &Config{
		Listen:     getenv("TTVGATE_LISTEN", ":3000"),
		DataDir:    os.Getenv("TTVGATE_DATADIR"),
		ProxyURL:   os.Getenv("TTVGATE_PROXY"),
		ForceProxy: os.Getenv("TTVGATE_FORCE_PROXY") == "1",
	}
}
