package config

import "log/slog"

// Context holds the loaded settings and the run-wide logger. It is passed
// explicitly into every component constructor; nothing in this program
// reads configuration from package-level state.
type Context struct {
	Settings *Settings
	Logger   *slog.Logger
}

// NewContext creates a new instance of Context with the provided settings.
func NewContext(settings *Settings) *Context {
	return &Context{Settings: settings}
}
