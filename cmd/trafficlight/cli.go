package main

import (
	"time"

	"github.com/alecthomas/kong"
)

// CLI is the command line of the simulator. Flags left at their zero value do
// not override the configuration.
type CLI struct {
	Config   string           `help:"Path to configuration file." short:"c" type:"path"`
	LogLevel string           `help:"Override log level (debug, info, warn, error)." name:"log-level"`
	Lights   int              `help:"Override the number of lights."`
	Waiters  int              `help:"Override the number of waiters per light."`
	Debug    bool             `help:"Enable debug mode." short:"d"`
	Watch    bool             `help:"Apply log level changes when the config file is edited."`
	Duration time.Duration    `help:"Stop after this long. Zero runs until interrupted."`
	Version  kong.VersionFlag `help:"Print version information and exit."`
}

func (c *CLI) overrides() map[string]interface{} {
	overrides := make(map[string]interface{})
	if c.LogLevel != "" {
		overrides["log.level"] = c.LogLevel
	}
	if c.Lights > 0 {
		overrides["lights.count"] = c.Lights
	}
	if c.Waiters > 0 {
		overrides["lights.waiters"] = c.Waiters
	}
	if c.Debug {
		overrides["app.debug"] = true
	}
	return overrides
}
