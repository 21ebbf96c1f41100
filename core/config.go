package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PackageOffer is a named duration offer, e.g. "7days" -> 7.
type PackageOffer struct {
	Label string
	Days  int
}

// Config carries all runtime configuration for the bot. It is built once at
// startup and passed explicitly to the components that need it.
type Config struct {
	BotToken    string
	DatabaseURL string
	RedisURL    string

	// AdminID and AdminHandle identify the single admin. Exactly one of them
	// is normally set; both zero means no admin is configured.
	AdminID     int64
	AdminHandle string

	// OpenAdminFallback grants admin to any caller when no admin identity is
	// configured. Off unless explicitly enabled; see FromEnv.
	OpenAdminFallback bool

	PaymentLink string
	Packages    []PackageOffer

	// BotUsername is filled in after the transport connects; it is used to
	// build deep links of the form https://t.me/<bot>?start=<id>.
	BotUsername string

	NotifyQueue  bool
	ReminderSpec string

	OpsAddr  string
	OpsToken string

	LogLevel string
}

// PackageDays resolves a package label to its day count.
func (c *Config) PackageDays(label string) (int, bool) {
	for _, p := range c.Packages {
		if p.Label == label {
			return p.Days, true
		}
	}
	return 0, false
}

// PackageLabels returns the offer labels in configured order.
func (c *Config) PackageLabels() []string {
	out := make([]string, 0, len(c.Packages))
	for _, p := range c.Packages {
		out = append(out, p.Label)
	}
	return out
}

// AdminConfigured reports whether an admin identity is set.
func (c *Config) AdminConfigured() bool {
	return c.AdminID != 0 || c.AdminHandle != ""
}

var defaultPackages = []PackageOffer{
	{Label: "1day", Days: 1},
	{Label: "3days", Days: 3},
	{Label: "7days", Days: 7},
	{Label: "30days", Days: 30},
}

// FromEnv builds a Config from environment variables.
//
// ADMIN_ID accepts either a numeric Telegram id or an @handle. VIP_PACKAGES
// overrides the offer table as "label:days,label:days". The open-admission
// fallback of the original bot (no admin configured means everyone is admin)
// is only honored when ADMIN_OPEN_FALLBACK=true.
func FromEnv() (*Config, error) {
	c := &Config{
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		PaymentLink:  getenv("PAYMENT_LINK", "https://trakteer.id/yourusername"),
		ReminderSpec: getenv("REMINDER_CRON", "@daily"),
		OpsAddr:      os.Getenv("OPS_ADDR"),
		OpsToken:     os.Getenv("OPS_TOKEN"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	if c.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	admin := strings.TrimSpace(os.Getenv("ADMIN_ID"))
	switch {
	case admin == "" || admin == "0":
		// left unconfigured; mutating commands are rejected unless the
		// fallback below is enabled
	case strings.HasPrefix(admin, "@"):
		c.AdminHandle = admin
	default:
		id, err := strconv.ParseInt(admin, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_ID %q is neither numeric nor an @handle", admin)
		}
		c.AdminID = id
	}

	c.OpenAdminFallback = boolenv("ADMIN_OPEN_FALLBACK")
	c.NotifyQueue = boolenv("NOTIFY_QUEUE")

	pkgs, err := parsePackages(os.Getenv("VIP_PACKAGES"))
	if err != nil {
		return nil, err
	}
	c.Packages = pkgs

	return c, nil
}

// parsePackages parses "1day:1,3days:3"; empty input yields the default table.
func parsePackages(raw string) ([]PackageOffer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPackages, nil
	}
	var out []PackageOffer
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, daysStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("VIP_PACKAGES entry %q: want label:days", part)
		}
		days, err := strconv.Atoi(strings.TrimSpace(daysStr))
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("VIP_PACKAGES entry %q: bad day count", part)
		}
		out = append(out, PackageOffer{Label: strings.ToLower(strings.TrimSpace(label)), Days: days})
	}
	if len(out) == 0 {
		return defaultPackages, nil
	}
	return out, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolenv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
