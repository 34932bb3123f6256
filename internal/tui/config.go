package tui

import (
	"time"

	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Now          func() time.Time
	Title        string
	Initial      query.State
	Timeout      time.Duration
	Width        int
	Height       int
	ShowHelp     bool
	MouseSupport bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Now:      time.Now,
		Title:    "Transactions",
		Initial:  query.Default(),
		Timeout:  30 * time.Second,
		Width:    120,
		Height:   30,
		ShowHelp: true,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithInitialState sets the first query state shown.
func WithInitialState(state query.State) Option {
	return func(c *Config) {
		c.Initial = state
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMouse enables mouse wheel scrolling.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}
