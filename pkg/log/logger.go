/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerHandle identifies a named sub-logger. Each subsystem logs through its own handle so the
// level can be tuned per subsystem without touching the root logger.
type LoggerHandle struct {
	id   int
	name string
}

// Predefined handles, the root handle must stay at id 0
var (
	Root      = &LoggerHandle{id: 0, name: ""}
	Config    = &LoggerHandle{id: 1, name: "config"}
	Mapping   = &LoggerHandle{id: 2, name: "mapping"}
	Capacity  = &LoggerHandle{id: 3, name: "capacity"}
	Generator = &LoggerHandle{id: 4, name: "generator"}
	Editor    = &LoggerHandle{id: 5, name: "editor"}
	Reload    = &LoggerHandle{id: 6, name: "reload"}
	REST      = &LoggerHandle{id: 7, name: "rest"}
	Metrics   = &LoggerHandle{id: 8, name: "metrics"}
	CLI       = &LoggerHandle{id: 9, name: "cli"}
	Locking   = &LoggerHandle{id: 10, name: "locking"}
)

var handles = []*LoggerHandle{Root, Config, Mapping, Capacity, Generator, Editor, Reload, REST, Metrics, CLI, Locking}

var once sync.Once
var logger *zap.Logger
var config *zap.Config
var aLevel *zap.AtomicLevel

var handleLock sync.RWMutex
var handleLevels = make(map[int]zapcore.Level)
var handleLoggers = make(map[int]*zap.Logger)

func (h *LoggerHandle) String() string {
	if h.name == "" {
		return "root"
	}
	return h.name
}

// Logger returns the root logger, building it on first use.
func Logger() *zap.Logger {
	once.Do(func() {
		if logger = zap.L(); isNopLogger(logger) {
			// no global logger was installed by an embedding process: build our own
			config = createConfig()
			var err error
			logger, err = config.Build()
			// this should really not happen so just write to stdout and set a Nop logger
			if err != nil {
				fmt.Printf("Logging disabled, logger init failed with error: %v\n", err)
				logger = zap.NewNop()
			}
		}
	})
	return logger
}

// Log returns the logger for the given handle. Loggers are cached, a level change for the handle
// drops the cached entry.
func Log(handle *LoggerHandle) *zap.Logger {
	if handle == nil || handle.id == Root.id {
		return Logger()
	}
	handleLock.RLock()
	cached, ok := handleLoggers[handle.id]
	handleLock.RUnlock()
	if ok {
		return cached
	}

	handleLock.Lock()
	defer handleLock.Unlock()
	if cached, ok = handleLoggers[handle.id]; ok {
		return cached
	}
	named := Logger().Named(handle.name)
	if level, ok := handleLevels[handle.id]; ok {
		named = named.WithOptions(zap.WrapCore(func(inner zapcore.Core) zapcore.Core {
			return filteredCore{level: level, inner: inner}
		}))
	}
	handleLoggers[handle.id] = named
	return named
}

// SetHandleLevel sets the minimum level for a single handle. Messages below the level are dropped
// even if the root logger would accept them.
func SetHandleLevel(handle *LoggerHandle, level zapcore.Level) {
	handleLock.Lock()
	defer handleLock.Unlock()
	handleLevels[handle.id] = level
	delete(handleLoggers, handle.id)
}

// HandleByName looks up a handle by its subsystem name, "root" returns the root handle.
func HandleByName(name string) *LoggerHandle {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, h := range handles {
		if h.String() == name {
			return h
		}
	}
	return nil
}

func IsDebugEnabled() bool {
	if logger == nil {
		// when under development mode
		return true
	}
	return logger.Core().Enabled(zapcore.DebugLevel)
}

// Returns true if the logger is a noop.
// Logger is a noop means the logger has not been initialized yet.
// This usually means a global logger is not set in the given context,
// see more at zap.ReplaceGlobals(). If an embedding tool presets a global logger
// it is simply reused.
func isNopLogger(logger *zap.Logger) bool {
	return reflect.DeepEqual(zap.NewNop(), logger)
}

// InitAndSetLevel builds the logger if needed and changes the root level.
func InitAndSetLevel(level zapcore.Level) {
	if config == nil {
		Logger()
	}
	if config == nil {
		// a global logger was reused, its level is owned by whoever built it
		return
	}
	config.Level.SetLevel(level)
}

// ParseLevel converts a level name as used on the command line. An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func GetAtomicLevel() *zap.AtomicLevel {
	return aLevel
}

// Create a log config to keep full control over
// LogLevel set to INFO, Encodes for console, Writes to stderr,
// Print stack traces for messages at ErrorLevel and above
func createConfig() *zap.Config {
	atomicLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	aLevel = &atomicLevel

	return &zap.Config{
		Level:             atomicLevel,
		Development:       false,
		DisableStacktrace: true,
		Encoding:          "console",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			LevelKey:      "level",
			TimeKey:       "time",
			NameKey:       "name",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
			// note: https://godoc.org/go.uber.org/zap/zapcore#EncoderConfig
			// only EncodeName is optional all others must be set
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
