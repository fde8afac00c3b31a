package config

import "time"

// JitterFile holds the probe jitter bounds in the config file.
type JitterFile struct {
	Min time.Duration `yaml:"min,omitempty"`
	Max time.Duration `yaml:"max,omitempty"`
}

// File represents the structure of the .imageloader configuration file.
// Zero values mean "not set" and leave the current setting untouched.
type File struct {
	// Dir is the default destination directory.
	Dir string `yaml:"dir,omitempty"`

	// Timeout overrides DefaultTimeout (e.g. "15s").
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides DefaultUserAgent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are added to every request. Values such as cookies or
	// authorization tokens are redacted from log output.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SocksProxy routes all requests through a SOCKS5 proxy ("host:port").
	SocksProxy string `yaml:"socksProxy,omitempty"`

	// Parser selects the document backend ("goquery" or "html").
	Parser string `yaml:"parser,omitempty"`

	// MaxBodySize overrides DefaultMaxBodySize in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// RequestInterval paces requests to the same host (e.g. "200ms").
	RequestInterval time.Duration `yaml:"requestInterval,omitempty"`

	// Jitter overrides the probe jitter bounds.
	Jitter JitterFile `yaml:"jitter,omitempty"`

	// History enables or disables the run history database.
	// A pointer distinguishes "false" from "not set".
	History *bool `yaml:"history,omitempty"`

	// HistoryDir overrides the history database directory.
	HistoryDir string `yaml:"historyDir,omitempty"`
}

// Apply copies every value set in the file onto c.
// Headers are merged, with file values overriding existing keys.
func (cf *File) Apply(c *Config) {
	if cf == nil {
		return
	}

	if cf.Dir != "" {
		c.Dir = cf.Dir
	}
	if cf.Timeout != 0 {
		c.Timeout = cf.Timeout
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if len(cf.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range cf.Headers {
			c.Headers[k] = v
		}
	}
	if cf.SocksProxy != "" {
		c.SocksProxy = cf.SocksProxy
	}
	if cf.Parser != "" {
		c.Parser = cf.Parser
	}
	if cf.MaxBodySize != 0 {
		c.MaxBodySize = cf.MaxBodySize
	}
	if cf.RequestInterval != 0 {
		c.RequestInterval = cf.RequestInterval
	}
	if cf.Jitter.Min != 0 {
		c.JitterMin = cf.Jitter.Min
	}
	if cf.Jitter.Max != 0 {
		c.JitterMax = cf.Jitter.Max
	}
	if cf.History != nil {
		c.SaveHistory = *cf.History
	}
	if cf.HistoryDir != "" {
		c.HistoryDir = cf.HistoryDir
	}
}
