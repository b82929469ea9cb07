package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/equipviz/rotorline/pkg/buildinfo"
	"github.com/equipviz/rotorline/pkg/cache"
	"github.com/equipviz/rotorline/pkg/config"
)

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := map[string]bool{
		"render":     false,
		"serve":      false,
		"inspect":    false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCommandUse(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	if root.Use != "rotorline" {
		t.Errorf("Use = %q, want rotorline", root.Use)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestCacheDirHomeFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir in test environment")
	}
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestNewCacheBackendSelection(t *testing.T) {
	ctx := context.Background()

	backend, err := newCache(ctx, config.CacheConfig{Backend: config.BackendNone}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*cache.NullCache); !ok {
		t.Errorf("backend none: got %T, want *cache.NullCache", backend)
	}

	backend, err = newCache(ctx, config.CacheConfig{Backend: config.BackendFile, Dir: t.TempDir()}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*cache.NullCache); !ok {
		t.Errorf("noCache: got %T, want *cache.NullCache", backend)
	}

	backend, err = newCache(ctx, config.CacheConfig{Backend: config.BackendFile, Dir: t.TempDir()}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*cache.FileCache); !ok {
		t.Errorf("backend file: got %T, want *cache.FileCache", backend)
	}
}

func TestNewCacheRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := config.CacheConfig{Backend: config.BackendRedis, RedisAddr: "127.0.0.1:1"}
	if _, err := newCache(ctx, cfg, false); err == nil {
		t.Fatal("expected connection error for unreachable redis")
	}
}

func TestNewRunnerScopesKeysByRelease(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone

	runner, err := c.newRunner(context.Background(), cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()

	key := runner.Keyer.TableKey("abc")
	if !strings.HasPrefix(key, buildinfo.Version+":") {
		t.Errorf("key %q lacks release prefix %q", key, buildinfo.Version+":")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"json", []string{"json"}},
		{"svg,json,dot", []string{"svg", "json", "dot"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
