package redis

import (
	"testing"
	"time"

	"github.com/campuslink/campuslink-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestOptionsFromConfigAddressFallback(t *testing.T) {
	t.Parallel()

	cfg := config.RedisConfig{
		Address:      "localhost:6379",
		Password:     "secret",
		DB:           2,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != cfg.Address || opts.Password != cfg.Password || opts.DB != cfg.DB {
		t.Fatalf("options not carried over: %+v", opts)
	}
	if opts.PoolSize != cfg.PoolSize || opts.DialTimeout != cfg.DialTimeout {
		t.Fatalf("pool settings not carried over: %+v", opts)
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@example.com:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "example.com:6380" || opts.DB != 3 {
		t.Fatalf("url not parsed: %+v", opts)
	}
}

func TestKeyHelpers(t *testing.T) {
	t.Parallel()

	if got := OTPKey("user@campus.edu"); got != "cl:otp:user@campus.edu" {
		t.Fatalf("unexpected otp key: %s", got)
	}
	if got := NotifyChannel("abc"); got != "cl:notify:abc" {
		t.Fatalf("unexpected notify channel: %s", got)
	}
}
