package core

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Options is threaded through every operation. A nil *Options behaves like
// the zero value with DefaultConfig.
type Options struct {
	Debug   bool
	Verbose bool
	Config  Config
	Logger  *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o *Options) config() Config {
	if o == nil {
		return DefaultConfig()
	}
	return o.Config.withDefaults()
}

// logInfo logs at info level only when Verbose or Debug is set.
func (o *Options) logInfo(msg string, args ...any) {
	if o != nil && (o.Verbose || o.Debug) {
		o.logger().Info(msg, args...)
	}
}

func (o *Options) logDebug(msg string, args ...any) {
	if o != nil && o.Debug {
		o.logger().Debug(msg, args...)
	}
}

// IsDocument reports whether path carries the configured document extension.
func (o *Options) IsDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), o.config().DocumentExt)
}

// IsImage reports whether path carries one of the configured image extensions.
func (o *Options) IsImage(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range o.config().ImageExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
