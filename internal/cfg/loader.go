package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

// GetVersion returns the build version, never empty.
func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Inputs and durable state
	FeedListPath string `long:"feed-list" env:"FEED_LIST_PATH" description:"File with one feed URL per line, or a YAML file with a feeds list"`
	StatePath    string `long:"state-path" env:"STATE_PATH" description:"Location of the durable state record"`
	SQLitePath   string `long:"sqlite-path" env:"SQLITE_PATH" description:"Alias for --state-path"`
	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"json" choice:"json" choice:"sqlite" description:"State backend"`

	// Fetching
	UserAgent       string  `long:"user-agent" env:"USER_AGENT" default:"rss-digest/1.0" description:"User agent string for HTTP requests"`
	HTTPTimeout     float64 `long:"http-timeout" env:"HTTP_TIMEOUT_SECONDS" default:"20" description:"Per-feed fetch timeout in seconds"`
	MaxItemsPerFeed int     `long:"max-items-per-feed" env:"MAX_ITEMS_PER_FEED" default:"0" description:"Only consider the first N entries of each feed (0 = all)"`

	// Reconciliation
	SeenLimit      int    `long:"seen-uids-per-feed-limit" env:"SEEN_UIDS_PER_FEED_LIMIT" default:"2000" description:"Maximum remembered entry ids per feed (0 = unbounded)"`
	InitialRunSend string `long:"initial-run-send" env:"INITIAL_RUN_SEND" default:"false" description:"Send the current backlog on the first run"`

	// Delivery
	SubjectPrefix string `long:"mail-subject-prefix" env:"MAIL_SUBJECT_PREFIX" default:"RSS updates" description:"Digest subject prefix"`
	SMTPHost      string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP server host"`
	SMTPPort      int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUsername  string `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP username"`
	SMTPPassword  string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	SMTPFrom      string `long:"smtp-from" env:"SMTP_FROM" description:"Sender address"`
	SMTPTo        string `long:"smtp-to" env:"SMTP_TO" description:"Recipient addresses, comma separated"`
	SMTPUseTLS    string `long:"smtp-use-tls" env:"SMTP_USE_TLS" default:"true" description:"Use STARTTLS"`
	SMTPUseSSL    string `long:"smtp-use-ssl" env:"SMTP_USE_SSL" default:"false" description:"Use implicit TLS"`
	DryRun        bool   `long:"dry-run" env:"DRY_RUN" description:"Print the digest instead of sending it"`

	// Scheduling
	CronSchedule  string  `long:"cron-schedule" env:"CRON_SCHEDULE" description:"5-field cron expression in UTC (empty = run once and exit)"`
	CronImmediate string  `long:"cron-immediate" env:"CRON_IMMEDIATE" default:"false" description:"Run once when the scheduler starts"`
	CronMaxSleep  float64 `long:"cron-max-sleep" env:"CRON_MAX_SLEEP_SECONDS" default:"60" description:"Longest single sleep between schedule checks, in seconds"`
	Port          string  `long:"port" env:"PORT" description:"Status server port in scheduled mode (empty = disabled)"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Errors are returned to the caller, which reports them once; only help is
// printed here.
const parserOptions = flags.HelpFlag | flags.PassDoubleDash

var helpOutput io.Writer = os.Stdout

// Load parses command line arguments and environment. It returns nil, nil
// when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, parserOptions)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Fprintln(helpOutput, flagsErr.Message)
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		FeedListPath:    strings.TrimSpace(raw.FeedListPath),
		StatePath:       strings.TrimSpace(cmp.Or(raw.StatePath, raw.SQLitePath)),
		StateBackend:    raw.StateBackend,
		UserAgent:       raw.UserAgent,
		HTTPTimeout:     seconds(raw.HTTPTimeout),
		MaxItemsPerFeed: raw.MaxItemsPerFeed,
		SeenLimit:       raw.SeenLimit,
		SubjectPrefix:   raw.SubjectPrefix,
		SMTP: SMTP{
			Host:     raw.SMTPHost,
			Port:     raw.SMTPPort,
			Username: raw.SMTPUsername,
			Password: raw.SMTPPassword,
			From:     raw.SMTPFrom,
			To:       raw.SMTPTo,
		},
		DryRun:       raw.DryRun,
		CronSchedule: strings.TrimSpace(raw.CronSchedule),
		CronMaxSleep: seconds(raw.CronMaxSleep),
		Port:         raw.Port,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	var err error
	if cfg.InitialRunSend, err = parseBool("INITIAL_RUN_SEND", raw.InitialRunSend); err != nil {
		return nil, err
	}
	if cfg.SMTP.UseTLS, err = parseBool("SMTP_USE_TLS", raw.SMTPUseTLS); err != nil {
		return nil, err
	}
	if cfg.SMTP.UseSSL, err = parseBool("SMTP_USE_SSL", raw.SMTPUseSSL); err != nil {
		return nil, err
	}
	if cfg.CronImmediate, err = parseBool("CRON_IMMEDIATE", raw.CronImmediate); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	var errs []error

	if c.FeedListPath == "" {
		errs = append(errs, errors.New("FEED_LIST_PATH is required"))
	}
	if c.StatePath == "" {
		errs = append(errs, errors.New("STATE_PATH is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT_SECONDS must be positive"))
	}
	if c.Scheduled() && c.CronMaxSleep <= 0 {
		errs = append(errs, errors.New("CRON_MAX_SLEEP_SECONDS must be positive"))
	}
	if c.SMTP.UseTLS && c.SMTP.UseSSL {
		errs = append(errs, errors.New("SMTP_USE_TLS and SMTP_USE_SSL cannot both be enabled"))
	}

	if !c.DryRun {
		required := []struct{ name, value string }{
			{"SMTP_HOST", c.SMTP.Host},
			{"SMTP_FROM", c.SMTP.From},
			{"SMTP_TO", c.SMTP.To},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				errs = append(errs, fmt.Errorf("%s is required unless DRY_RUN is set", r.name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func parseBool(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean for %s: %q", name, value)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
