/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

// Package log provides the module-scoped logger used across podpingd.
//
// Call sites use the key-value style of the klaytn/go-ethereum "log"
// packages: logger.Info("message", "key1", val1, "key2", val2). Underneath
// it is backed by go.uber.org/zap's SugaredLogger.
package log

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module names, mirroring the enum-of-components convention of
// log.NewModuleLogger(log.Common) in the teacher repo.
const (
	ModuleMain        = "main"
	ModuleConfig      = "config"
	ModuleScanner     = "scanner"
	ModuleDecoder     = "decoder"
	ModuleJSONRPC     = "jsonrpc"
	ModuleSyncer      = "syncer"
	ModuleBroadcast   = "broadcast"
	ModuleWriter      = "writer"
	ModuleDisk        = "writer.disk"
	ModuleConsole     = "writer.console"
	ModuleObjectStore = "writer.objectstorage"
	ModuleHTTPAPI     = "httpapi"
)

// level is shared by every module logger, so Init changes the verbosity of
// loggers that were created at package init as well.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var base *zap.SugaredLogger = newBase()

func newBase() *zap.SugaredLogger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	var out zapcore.WriteSyncer
	if isatty.IsTerminal(os.Stdout.Fd()) {
		out = zapcore.AddSync(colorable.NewColorableStdout())
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		out = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), out, level)
	return zap.New(core).Sugar()
}

// Init sets the process-wide log level. debug raises verbosity from Info to
// Debug, matching the `debug: bool` config option of §6.
func Init(debug bool) {
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Logger is a module-scoped logger handed out by NewModuleLogger.
type Logger struct {
	module string
	s      *zap.SugaredLogger
}

// NewModuleLogger returns a Logger tagged with the given module name, in
// the spirit of log.NewModuleLogger(log.Common) from the teacher repo.
func NewModuleLogger(module string) *Logger {
	return &Logger{module: module, s: base.With("module", module)}
}

func (l *Logger) Trace(msg string, ctx ...interface{}) { l.s.Debugw(msg, ctx...) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.s.Debugw(msg, ctx...) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.s.Infow(msg, ctx...) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.s.Warnw(msg, ctx...) }
func (l *Logger) Error(msg string, ctx ...interface{}) { l.s.Errorw(msg, ctx...) }

// Crit logs at error level and terminates the process, mirroring the
// teacher's logger.Crit(...) fatal-log convention (used for FatalInit).
func (l *Logger) Crit(msg string, ctx ...interface{}) {
	l.s.Errorw(msg, ctx...)
	os.Exit(1)
}
