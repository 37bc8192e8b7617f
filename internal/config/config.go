package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Timer backends
const (
	TimersLocal = "local"
	TimersRedis = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store     string         // "memory" | "redis" | "sqlite"
	SQLiteDir string         // directory holding followup.db
	Timers    string         // "local" | "redis"
	TimerPoll time.Duration  // redis timer queue poll interval
	Location  *time.Location // zone follow-up times are read in
	Snooze    time.Duration  // how far "Snooze" pushes a reminder
	Sweep     time.Duration  // liveness sweep interval (logs the armed timer count)
	SeedFile  string         // optional YAML file imported at startup

	// Redis, only read when a redis backend is selected
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedOrigins []string // CORS origins, "*" allows any (the extension uses chrome-extension://<id>)
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateBurst     int // write requests allowed in a burst per client (0 = no limit)
	RatePerMinute int // sustained write requests per minute per client
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("FOLLOWUP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("FOLLOWUP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("FOLLOWUP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("FOLLOWUP_PRETTY_LOG", true),

		// Backends
		Store:     mustOneOf("FOLLOWUP_STORE", StoreMemory, StoreMemory, StoreRedis, StoreSQLite),
		SQLiteDir: getenv("FOLLOWUP_SQLITE_DIR", "./data"),
		Timers:    mustOneOf("FOLLOWUP_TIMERS", TimersLocal, TimersLocal, TimersRedis),
		TimerPoll: mustDuration("FOLLOWUP_TIMER_POLL", time.Second),

		// Reminders
		Location: mustLocation("FOLLOWUP_TIMEZONE"),
		Snooze:   mustDuration("FOLLOWUP_SNOOZE", 15*time.Minute),
		Sweep:    mustDuration("FOLLOWUP_SWEEP_INTERVAL", 5*time.Minute),
		SeedFile: getenv("FOLLOWUP_SEED_FILE", ""), // Optional, empty = no seed import

		// Access restrictions
		AllowedOrigins: splitAndTrim(getenv("FOLLOWUP_ALLOWED_ORIGINS", "*")),
		AllowedHosts:   splitAndTrim(getenv("FOLLOWUP_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("FOLLOWUP_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("FOLLOWUP_TRUST_PROXY", false),

		RateBurst:     getenvInt("FOLLOWUP_RATE_BURST", 20),
		RatePerMinute: getenvInt("FOLLOWUP_RATE_PER_MIN", 60),
	}

	if cfg.Snooze <= 0 {
		panic(fmt.Sprintf("❌ FATAL: FOLLOWUP_SNOOZE must be positive, got %s", cfg.Snooze))
	}

	if cfg.UsesRedis() {
		loadRedis(cfg)
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Store == StoreRedis || c.Timers == TimersRedis
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("FOLLOWUP_REDIS_ADDR")
	cfg.RedisUser = getenv("FOLLOWUP_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("FOLLOWUP_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("FOLLOWUP_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("FOLLOWUP_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: FOLLOWUP_REDIS_PASSWORD is required when FOLLOWUP_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// mustOneOf returns the value of key, or def when unset. Anything outside
// allowed is fatal.
func mustOneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getenv(key, def))
	if !slices.Contains(allowed, v) {
		panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (want one of %s)", key, v, strings.Join(allowed, ", ")))
	}
	return v
}

// mustLocation loads the IANA zone named by key; unset means the host zone.
func mustLocation(key string) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid time zone for %s: %s", key, v))
	}
	return loc
}
