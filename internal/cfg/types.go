package cfg

import "time"

type Cfg struct {
	// Inputs and durable state
	FeedListPath string
	StatePath    string
	StateBackend string

	// Fetching
	UserAgent       string
	HTTPTimeout     time.Duration
	MaxItemsPerFeed int

	// Reconciliation
	SeenLimit      int
	InitialRunSend bool

	// Delivery
	SubjectPrefix string
	SMTP          SMTP
	DryRun        bool

	// Scheduling
	CronSchedule  string
	CronImmediate bool
	CronMaxSleep  time.Duration
	Port          string

	Debug   bool
	Version string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	UseTLS   bool
	UseSSL   bool
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Scheduled reports whether the process keeps running on a cron schedule
// instead of performing a single run.
func (c *Cfg) Scheduled() bool {
	return c.CronSchedule != ""
}
