// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package slogging wires every subsystem's logger onto one rotating log
// file plus stdout, following the backend/subsystem split used throughout
// the Decred tooling family: a single slog.Backend writes to both
// destinations, and each package gets its own named slog.Logger so its
// level can be raised independently at runtime.
package slogging

import (
	"fmt"
	"os"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logRotator rotates the on-disk log file once it crosses a size
// threshold; nil until InitLogRotator is called, in which case log output
// goes to stdout only.
var logRotator *rotator.Rotator

// backendLog is the slog.Backend every subsystem logger is created from.
var backendLog = slog.NewBackend(logWriter{})

// logWriter sends log output to both stdout and logRotator, when present.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// subsystemLoggers maps each subsystem's short tag to its logger, so
// SetLogLevels and SetLogLevel can look them up by name.
var subsystemLoggers = make(map[string]slog.Logger)

// register creates (or returns the existing) logger for tag at the
// package's default level.
func register(tag string) slog.Logger {
	if l, ok := subsystemLoggers[tag]; ok {
		return l
	}
	l := backendLog.Logger(tag)
	subsystemLoggers[tag] = l
	return l
}

// Subsystem loggers, one per package that logs. Naming mirrors the
// teacher's convention of a three-to-five letter tag per package.
var (
	CTXL = register("CTXS") // consensus/context
	VRFY = register("VRFY") // consensus/verify
	SYNC = register("SYNC") // netsync
	DLDR = register("DLDR") // netsync downloader
	POWL = register("POW ") // consensus/pow
	MAIN = register("MAIN") // cmd/monerod
)

// InitLogRotator opens (creating if necessary) the rotating log file at
// logFile. Must be called before any logging happens if file output is
// wanted; without it, only stdout receives log output.
func InitLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("slogging: failed to create log rotator: %w", err)
	}
	logRotator = r
	return nil
}

// SetLogLevel sets tag's logger to the named level ("trace", "debug",
// "info", "warn", "error", "critical", "off").
func SetLogLevel(tag, levelName string) error {
	l, ok := subsystemLoggers[tag]
	if !ok {
		return fmt.Errorf("slogging: unknown subsystem %q", tag)
	}
	level, ok := slog.LevelFromString(levelName)
	if !ok {
		return fmt.Errorf("slogging: unknown log level %q", levelName)
	}
	l.SetLevel(level)
	return nil
}

// SetLogLevels sets every registered subsystem to the named level.
func SetLogLevels(levelName string) error {
	level, ok := slog.LevelFromString(levelName)
	if !ok {
		return fmt.Errorf("slogging: unknown log level %q", levelName)
	}
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
	return nil
}

// ParseAndSetDebugLevels applies a debugLevel specification of the form
// "trace" (global) or "CTXS=debug,SYNC=trace" (per-subsystem), the same
// syntax the teacher's --debuglevel flag accepts.
func ParseAndSetDebugLevels(spec string) error {
	if !strings.Contains(spec, ",") && !strings.Contains(spec, "=") {
		return SetLogLevels(spec)
	}
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("slogging: malformed debug level specification %q", pair)
		}
		if err := SetLogLevel(parts[0], parts[1]); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the log rotator, if one was opened.
func Close() error {
	if logRotator == nil {
		return nil
	}
	return logRotator.Close()
}
