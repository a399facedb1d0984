package config

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("WITHDRAWAL_MIN_AMOUNT", "")
	t.Setenv("WITHDRAWAL_RESTORE_ON_REJECT", "")
	t.Setenv("PAYMENT_SWEEP_INTERVAL", "")
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Affiliate.MinWithdrawal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("MinWithdrawal = %s, want 200", cfg.Affiliate.MinWithdrawal)
	}
	if !cfg.Affiliate.DefaultCommissionRate.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("DefaultCommissionRate = %s", cfg.Affiliate.DefaultCommissionRate)
	}
	if cfg.Affiliate.WithdrawalWindow != 24*time.Hour {
		t.Errorf("WithdrawalWindow = %s", cfg.Affiliate.WithdrawalWindow)
	}
	if !cfg.Affiliate.RestoreOnReject {
		t.Error("RestoreOnReject = false, want rejected withdrawals refunded by default")
	}
	if cfg.Redis.Enabled() {
		t.Error("redis enabled without a host")
	}
	if cfg.Gateways.SweepInterval != 0 {
		t.Errorf("SweepInterval = %s, want disabled", cfg.Gateways.SweepInterval)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "WEBHOOK_SECRET") {
		t.Errorf("Warnings = %q, want the missing webhook secret", cfg.Warnings)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WITHDRAWAL_MIN_AMOUNT", "350.50")
	t.Setenv("AFFILIATE_COMMISSION_RATE", "not-a-number")
	t.Setenv("WITHDRAWAL_WINDOW", "12h")
	t.Setenv("WITHDRAWAL_RESTORE_ON_REJECT", "false")
	t.Setenv("PAYMENT_TIMEOUT", "soon")
	t.Setenv("WEBHOOK_SECRET", "hook-token")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "stack")
	t.Setenv("DB_SSLMODE", "disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Affiliate.MinWithdrawal.Equal(decimal.RequireFromString("350.50")) {
		t.Errorf("MinWithdrawal = %s", cfg.Affiliate.MinWithdrawal)
	}
	if !cfg.Affiliate.DefaultCommissionRate.Equal(DefaultCommissionRate) {
		t.Errorf("invalid rate should fall back, got %s", cfg.Affiliate.DefaultCommissionRate)
	}
	if cfg.Affiliate.WithdrawalWindow != 12*time.Hour || cfg.Affiliate.RestoreOnReject {
		t.Errorf("affiliate = %+v", cfg.Affiliate)
	}
	if cfg.Gateways.PaymentTimeout != DefaultPaymentTimeout || cfg.Gateways.WebhookSecret != "hook-token" {
		t.Errorf("gateways = %+v", cfg.Gateways)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.Addr() != "cache:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr())
	}
	if got, want := cfg.Database.DSN(), "postgres://app:pw@db:5432/stack?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	if len(cfg.Warnings) != 2 {
		t.Fatalf("Warnings = %q, want two", cfg.Warnings)
	}
	for i, key := range []string{"AFFILIATE_COMMISSION_RATE", "PAYMENT_TIMEOUT"} {
		if !strings.Contains(cfg.Warnings[i], key) {
			t.Errorf("Warnings[%d] = %q, want %s", i, cfg.Warnings[i], key)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	t.Run("escapes credentials", func(t *testing.T) {
		db := DatabaseConfig{User: "app", Password: "p@ss:w/rd#1?", Host: "db", Port: "5432", Name: "stack", SSLMode: "require"}
		u, err := url.Parse(db.DSN())
		if err != nil {
			t.Fatalf("url.Parse(%q) error = %v", db.DSN(), err)
		}
		if pw, _ := u.User.Password(); pw != db.Password {
			t.Errorf("password = %q, want %q", pw, db.Password)
		}
		if u.Host != "db:5432" || u.Path != "/stack" || u.Query().Get("sslmode") != "require" {
			t.Errorf("DSN() = %q", db.DSN())
		}
	})

	t.Run("database url wins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://u:p@managed:6543/prod?sslmode=require")
		t.Setenv("DB_HOST", "ignored")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got := cfg.Database.DSN(); got != "postgres://u:p@managed:6543/prod?sslmode=require" {
			t.Errorf("DSN() = %q", got)
		}
	})
}
