package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

// Load reads configuration from the environment (a .env file is honored when
// present), with command line flags as overrides.
func Load() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envString("HOST", "0.0.0.0"), "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", envUint("PORT", 5000), "listen port number (default 5000)")
	flag.StringVar(&cfg.DBUrl, "db-url", envString("DB_URL", "formsend.sqlite"), "path to SQLite3 DB file (default formsend.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("JWT_SECRET"), "secret key for signing bearer tokens")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUint("TOKEN_TTL_HOURS", 720), "bearer token TTL in hours (default 720, i.e. 30 days)")
	flag.BoolVar(&cfg.Debug, "debug", os.Getenv("DEBUG") != "", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Hour

	if cfg.TokenSecret == "" {
		err = errors.New("missing JWT_SECRET (or -token-secret)")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}
