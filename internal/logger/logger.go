// Package logger provides structured logging for the gateway.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance, configured by Initialize.
var Log zerolog.Logger

func init() {
	Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Initialize configures the global logger's level and output format.
func Initialize(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output zerolog.ConsoleWriter
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		Log = zerolog.New(output).With().Timestamp().Logger()
		return
	}

	Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Store returns a sub-logger scoped to the resource store component.
func Store() zerolog.Logger {
	return Log.With().Str("component", "store").Logger()
}

// SessionStore returns a sub-logger scoped to the session store component.
func SessionStore() zerolog.Logger {
	return Log.With().Str("component", "sessionstore").Logger()
}

// Deploy returns a sub-logger scoped to the deployment manager component.
func Deploy() zerolog.Logger {
	return Log.With().Str("component", "deploy").Logger()
}

// NodeInfo returns a sub-logger scoped to the node-info provider component.
func NodeInfo() zerolog.Logger {
	return Log.With().Str("component", "nodeinfo").Logger()
}

// Proxy returns a sub-logger scoped to the reverse proxy component.
func Proxy() zerolog.Logger {
	return Log.With().Str("component", "proxy").Logger()
}

// ToolGateway returns a sub-logger scoped to the tool-gateway router component.
func ToolGateway() zerolog.Logger {
	return Log.With().Str("component", "toolgateway").Logger()
}

// HTTP returns a sub-logger scoped to the HTTP API component.
func HTTP() zerolog.Logger {
	return Log.With().Str("component", "http").Logger()
}

// Audit returns a sub-logger scoped to the audit-logging component.
func Audit() zerolog.Logger {
	return Log.With().Str("component", "audit").Logger()
}
