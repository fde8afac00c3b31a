package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDir is the destination directory used when --dir is not given.
	DefaultDir = "saved-images"

	// DefaultTimeout bounds every stall of a network call (connect, waiting
	// for headers, a gap between body reads). A transfer that keeps moving
	// is not cut off.
	DefaultTimeout = 10 * time.Second

	// DefaultJitterMin and DefaultJitterMax bound the random pause taken
	// before every validation probe.
	DefaultJitterMin = 50 * time.Millisecond
	DefaultJitterMax = 500 * time.Millisecond

	// DefaultMaxBodySize limits how much of the target page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies imageloader in HTTP requests.
	DefaultUserAgent = "imageloader/1.0 (+https://github.com/nao1215/imageloader)"

	// AppName is the application name used for XDG directory paths.
	AppName = "imageloader"
)

// Parser backends accepted by --parser.
const (
	// ParserGoquery parses pages with github.com/PuerkitoBio/goquery.
	ParserGoquery = "goquery"

	// ParserHTML walks the golang.org/x/net/html node tree directly.
	ParserHTML = "html"
)

// Config holds all configuration options for a run.
// It is populated from defaults, the optional config file and CLI flags.
type Config struct {
	// URL is the page to scrape. Required.
	URL string

	// Dir is the destination directory as given by the user.
	// See DestinationDir for how relative paths are expanded.
	Dir string

	// Debug enables debug-level logging. It never changes which images are
	// resolved or downloaded.
	Debug bool

	// Timeout bounds each stall of every request made by the HTTP client.
	Timeout time.Duration

	// JitterMin and JitterMax bound the random delay before each probe.
	JitterMin time.Duration
	JitterMax time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// SocksProxy is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	SocksProxy string

	// MaxBodySize is the maximum number of page bytes read.
	MaxBodySize int64

	// RequestInterval is the minimum time between two requests to the same
	// host. Zero disables pacing.
	RequestInterval time.Duration

	// Parser selects the HTML document backend (ParserGoquery or ParserHTML).
	Parser string

	// ConfigFilePath is the config file given with --config.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SaveHistory enables recording the run in the history database.
	SaveHistory bool

	// HistoryDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	HistoryDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Dir:         DefaultDir,
		Timeout:     DefaultTimeout,
		JitterMin:   DefaultJitterMin,
		JitterMax:   DefaultJitterMax,
		UserAgent:   DefaultUserAgent,
		Headers:     make(map[string]string),
		MaxBodySize: DefaultMaxBodySize,
		Parser:      ParserGoquery,
		SaveHistory: true,
		HistoryDir:  XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for imageloader.
// On Linux: ~/.local/share/imageloader
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for imageloader.
// On Linux: ~/.config/imageloader
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return ErrNoURL
	}

	if strings.TrimSpace(c.Dir) == "" {
		return ErrNoDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JitterMin < DefaultJitterMin || c.JitterMax < c.JitterMin {
		return ErrInvalidJitter
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RequestInterval < 0 {
		return ErrInvalidRequestInterval
	}

	if c.Parser != ParserGoquery && c.Parser != ParserHTML {
		return ErrUnknownParser
	}

	return nil
}

// DestinationDir returns the directory images are written to.
//
// An absolute Dir is used as-is. A relative Dir gets a sub-directory named
// after the page URL (see FolderName).
func (c *Config) DestinationDir() string {
	if filepath.IsAbs(c.Dir) {
		return c.Dir
	}
	return filepath.Join(c.Dir, FolderName(c.URL))
}

// FolderName turns a URL into a directory name: "/" becomes "_", ":" is
// dropped and "." becomes "_".
//
//	FolderName("http://example.com/a") == "http__example_com_a"
func FolderName(rawURL string) string {
	r := strings.NewReplacer("/", "_", ":", "", ".", "_")
	return strings.TrimSpace(r.Replace(rawURL))
}
