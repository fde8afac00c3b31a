package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Dir is saved-images", func(t *testing.T) {
		t.Parallel()
		if cfg.Dir != "saved-images" {
			t.Errorf("expected Dir to be 'saved-images', got '%s'", cfg.Dir)
		}
	})

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default jitter is 50ms to 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.JitterMin != 50*time.Millisecond || cfg.JitterMax != 500*time.Millisecond {
			t.Errorf("expected jitter 50ms-500ms, got %v-%v", cfg.JitterMin, cfg.JitterMax)
		}
	})

	t.Run("default Parser is goquery", func(t *testing.T) {
		t.Parallel()
		if cfg.Parser != ParserGoquery {
			t.Errorf("expected Parser to be %q, got %q", ParserGoquery, cfg.Parser)
		}
	})

	t.Run("default Debug is false", func(t *testing.T) {
		t.Parallel()
		if cfg.Debug {
			t.Error("expected Debug to be false")
		}
	})

	t.Run("default SaveHistory is true", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
	})

	t.Run("default HistoryDir is XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.HistoryDir != XDGDataDir() {
			t.Errorf("expected HistoryDir to be %q, got %q", XDGDataDir(), cfg.HistoryDir)
		}
	})

	t.Run("Headers map is initialized", func(t *testing.T) {
		t.Parallel()
		if cfg.Headers == nil {
			t.Error("expected Headers to be non-nil")
		}
	})
}

// TestConfigValidate tests the Validate method.
// Each case breaks exactly one rule of an otherwise valid configuration.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.URL = "http://example.com/"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty URL", func(c *Config) { c.URL = "" }, ErrNoURL},
		{"blank URL", func(c *Config) { c.URL = "   " }, ErrNoURL},
		{"empty Dir", func(c *Config) { c.Dir = "" }, ErrNoDir},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative jitter min", func(c *Config) { c.JitterMin = -time.Millisecond }, ErrInvalidJitter},
		{"jitter min below 50ms", func(c *Config) { c.JitterMin, c.JitterMax = time.Millisecond, time.Millisecond }, ErrInvalidJitter},
		{"jitter max below min", func(c *Config) { c.JitterMax = c.JitterMin - time.Millisecond }, ErrInvalidJitter},
		{"zero max body size", func(c *Config) { c.MaxBodySize = 0 }, ErrInvalidMaxBodySize},
		{"negative request interval", func(c *Config) { c.RequestInterval = -time.Second }, ErrInvalidRequestInterval},
		{"unknown parser", func(c *Config) { c.Parser = "regex" }, ErrUnknownParser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("equal jitter bounds are valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JitterMin = DefaultJitterMin
		cfg.JitterMax = DefaultJitterMin
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("html parser is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Parser = ParserHTML
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/a", "http__example_com_a"},
		{"https://example.com:8080/x/y.html", "https__example_com8080_x_y_html"},
		{" http://example.com ", "http__example_com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := FolderName(tt.url); got != tt.want {
				t.Errorf("FolderName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDestinationDir(t *testing.T) {
	t.Parallel()

	t.Run("relative dir gets folder named after URL", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.URL = "http://example.com/a"
		cfg.Dir = "imgs"
		want := filepath.Join("imgs", "http__example_com_a")
		if got := cfg.DestinationDir(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("absolute dir is used as-is", func(t *testing.T) {
		t.Parallel()
		abs := t.TempDir()
		cfg := NewConfig()
		cfg.URL = "http://example.com/a"
		cfg.Dir = abs
		if got := cfg.DestinationDir(); got != abs {
			t.Errorf("expected %q, got %q", abs, got)
		}
	})
}

// TestLoadConfigFile tests loading the YAML configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads all fields", func(t *testing.T) {
		t.Parallel()

		content := `dir: /tmp/pictures
timeout: 15s
userAgent: test-agent
headers:
  Cookie: session=abc
socksProxy: 127.0.0.1:9050
parser: html
maxBodySize: 1024
requestInterval: 250ms
jitter:
  min: 10ms
  max: 20ms
history: false
historyDir: /tmp/history
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Dir != "/tmp/pictures" {
			t.Errorf("expected Dir '/tmp/pictures', got %q", cf.Dir)
		}
		if cf.Timeout != 15*time.Second {
			t.Errorf("expected Timeout 15s, got %v", cf.Timeout)
		}
		if cf.UserAgent != "test-agent" {
			t.Errorf("expected UserAgent 'test-agent', got %q", cf.UserAgent)
		}
		if cf.Headers["Cookie"] != "session=abc" {
			t.Errorf("expected Cookie header, got %v", cf.Headers)
		}
		if cf.SocksProxy != "127.0.0.1:9050" {
			t.Errorf("expected SocksProxy, got %q", cf.SocksProxy)
		}
		if cf.Parser != ParserHTML {
			t.Errorf("expected Parser 'html', got %q", cf.Parser)
		}
		if cf.MaxBodySize != 1024 {
			t.Errorf("expected MaxBodySize 1024, got %d", cf.MaxBodySize)
		}
		if cf.RequestInterval != 250*time.Millisecond {
			t.Errorf("expected RequestInterval 250ms, got %v", cf.RequestInterval)
		}
		if cf.Jitter.Min != 10*time.Millisecond || cf.Jitter.Max != 20*time.Millisecond {
			t.Errorf("expected jitter 10ms-20ms, got %v-%v", cf.Jitter.Min, cf.Jitter.Max)
		}
		if cf.History == nil || *cf.History {
			t.Errorf("expected History false, got %v", cf.History)
		}
		if cf.HistoryDir != "/tmp/history" {
			t.Errorf("expected HistoryDir, got %q", cf.HistoryDir)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("timeout: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("empty file initializes headers", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Headers == nil {
			t.Error("expected Headers to be non-nil")
		}
	})
}

func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()
		off := false
		cf := &File{
			Timeout: 3 * time.Second,
			Parser:  ParserHTML,
			Headers: map[string]string{"X-Test": "1"},
			Jitter:  JitterFile{Min: time.Millisecond, Max: 2 * time.Millisecond},
			History: &off,

			RequestInterval: 100 * time.Millisecond,
		}
		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.Timeout != 3*time.Second {
			t.Errorf("expected Timeout 3s, got %v", cfg.Timeout)
		}
		if cfg.Parser != ParserHTML {
			t.Errorf("expected Parser html, got %q", cfg.Parser)
		}
		if cfg.Headers["X-Test"] != "1" {
			t.Errorf("expected X-Test header, got %v", cfg.Headers)
		}
		if cfg.JitterMin != time.Millisecond || cfg.JitterMax != 2*time.Millisecond {
			t.Errorf("unexpected jitter %v-%v", cfg.JitterMin, cfg.JitterMax)
		}
		if cfg.RequestInterval != 100*time.Millisecond {
			t.Errorf("expected RequestInterval 100ms, got %v", cfg.RequestInterval)
		}
		if cfg.SaveHistory {
			t.Error("expected SaveHistory false")
		}
	})

	t.Run("unset values keep defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		(&File{}).Apply(cfg)
		if cfg.Timeout != DefaultTimeout || cfg.Dir != DefaultDir || !cfg.SaveHistory {
			t.Errorf("expected defaults to be kept, got %+v", cfg)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		var cf *File
		cf.Apply(cfg)
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %v", cfg.Timeout)
		}
	})
}

// TestFindConfigFile tests the config file search.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("timeout: 1s\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("XDGDataDir should end with %q, got %q", AppName, XDGDataDir())
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("XDGConfigDir should end with %q, got %q", AppName, XDGConfigDir())
	}
}
