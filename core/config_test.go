package core

import (
	"testing"
)

func TestFromEnvNumericAdmin(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "12345")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AdminID != 12345 || cfg.AdminHandle != "" {
		t.Fatalf("unexpected admin identity: %d %q", cfg.AdminID, cfg.AdminHandle)
	}
	if !cfg.AdminConfigured() {
		t.Fatal("admin should be configured")
	}
	if cfg.OpenAdminFallback {
		t.Fatal("open fallback must default to off")
	}
}

func TestFromEnvHandleAdmin(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "@boss")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AdminHandle != "@boss" || cfg.AdminID != 0 {
		t.Fatalf("unexpected admin identity: %d %q", cfg.AdminID, cfg.AdminHandle)
	}
}

func TestFromEnvAdminUnset(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "0")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AdminConfigured() {
		t.Fatal("ADMIN_ID=0 must read as unconfigured")
	}
}

func TestFromEnvBadAdmin(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "not-an-id")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for malformed ADMIN_ID")
	}
}

func TestFromEnvRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without bot token")
	}
}

func TestDefaultPackages(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("VIP_PACKAGES", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	days, ok := cfg.PackageDays("7days")
	if !ok || days != 7 {
		t.Fatalf("default 7days offer missing: %d %v", days, ok)
	}
	want := []string{"1day", "3days", "7days", "30days"}
	got := cfg.PackageLabels()
	if len(got) != len(want) {
		t.Fatalf("labels %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels %v, want %v", got, want)
		}
	}
}

func TestCustomPackages(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("VIP_PACKAGES", "Weekend:2, month:30")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if days, ok := cfg.PackageDays("weekend"); !ok || days != 2 {
		t.Fatalf("weekend offer: %d %v", days, ok)
	}
	if _, ok := cfg.PackageDays("7days"); ok {
		t.Fatal("default offers must not leak into a custom table")
	}
}

func TestBadPackages(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	for _, raw := range []string{"nodays", "label:zero", "label:-1"} {
		t.Setenv("VIP_PACKAGES", raw)
		if _, err := FromEnv(); err == nil {
			t.Fatalf("VIP_PACKAGES=%q accepted", raw)
		}
	}
}
