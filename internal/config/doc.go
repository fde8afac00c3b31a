// Package config provides configuration structures and utilities for
// imageloader. It defines the defaults for network timeouts, probe jitter,
// the destination directory and the run history, and loads the optional
// YAML configuration file.
package config
