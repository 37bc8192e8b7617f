package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/notify"
	"github.com/MrSnakeDoc/followup/internal/records"
	"github.com/MrSnakeDoc/followup/internal/reminder"
	"github.com/MrSnakeDoc/followup/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts   []string // Host headers allowed to reach the API
	AllowedCIDRS   []string // client IPs/CIDRs allowed to reach the API
	AllowedOrigins []string // browser origins allowed by CORS (the extension)
	TrustProxy     bool     // resolve client IPs from proxy headers

	// MutationLimit throttles write endpoints; nil disables throttling.
	MutationLimit func(http.Handler) http.Handler

	StoreBackend string            // "memory" | "redis" | "sqlite"
	TimerBackend string            // "local" | "redis"
	KV           store.KV          // backing store, pinged by readyz/infra
	Records      *records.Service  // record mutations and agenda
	Reminders    *reminder.Service // reminder event loop
	Inbox        *notify.Inbox     // notifications on screen
	SeedTrigger  chan struct{}     // triggers a seed re-import; nil without a seed file
}
