// Package loglevel maps a level name to a go-kit level filter
package loglevel

import (
	"strings"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLevelFilterFromString returns logger filtered at the level named by s,
// DEBUG|INFO|WARN|ERROR, unknown values allow everything
func NewLevelFilterFromString(logger log.Logger, s string) log.Logger {
	return level.NewFilter(logger, Option(s))
}

// Option returns the level option named by s
func Option(s string) level.Option {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return level.AllowDebug()
	case "INFO":
		return level.AllowInfo()
	case "WARN":
		return level.AllowWarn()
	case "ERROR":
		return level.AllowError()
	case "NONE":
		return level.AllowNone()
	}
	return level.AllowAll()
}
