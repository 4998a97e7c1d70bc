package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	updates := make(chan AppConfig, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := Watcher{Path: path, Cooldown: 10 * time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) {
			select {
			case updates <- cfg:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(validYAML, "env: dev", "env: prod", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		if cfg.Env != "prod" {
			t.Fatalf("expected reloaded env prod, got %s", cfg.Env)
		}
	case <-ctx.Done():
		t.Fatal("watcher did not deliver the reloaded config")
	}
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	errs := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := Watcher{Path: path, Cooldown: 10 * time.Millisecond}
	go func() {
		_ = w.Start(ctx, nil, func(err error) {
			select {
			case errs <- err:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("env: ''\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected a reload error")
		}
	case <-ctx.Done():
		t.Fatal("watcher did not report the invalid config")
	}
}
