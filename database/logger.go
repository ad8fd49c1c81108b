/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomoncle/dbclient/utils"
)

const defaultLoggerName = "DATABASE"

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "DEBUG"
	}
}

// ParseLogLevel maps a level name to a LogLevel; unknown names yield info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// InitLogger installs the process default logger. Only the first call wins.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	dl := &DefaultLogger{logger: utils.NewLogger(defaultLoggerName)}
	globalLoggerMu.Lock()
	if globalLogger == nil {
		globalLogger = dl
	}
	l = globalLogger
	globalLoggerMu.Unlock()
	return l
}

// DefaultLogger writes through the named logrus logger from utils.
type DefaultLogger struct {
	logger *utils.Logger
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg + formatFields(fields...))
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg + formatFields(fields...))
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg + formatFields(fields...))
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logger.Error(msg + formatFields(fields...))
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	utils.SetLoggerLevel(defaultLoggerName, strings.ToLower(level.String()))
}

func formatFields(fields ...interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(fields); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", fields[i], fields[i+1]))
	}
	return sb.String()
}

// channelLogger drops info, warn and error messages whose channel is
// disabled and turns the rest into client events. Debug always passes.
type channelLogger struct {
	base     Logger
	channels LogChannels
	emit     func(Event)
}

func newChannelLogger(base Logger, channels LogChannels, emit func(Event)) *channelLogger {
	return &channelLogger{base: base, channels: channels, emit: emit}
}

func (l *channelLogger) SetLevel(level LogLevel) { l.base.SetLevel(level) }

func (l *channelLogger) Debug(msg string, fields ...interface{}) {
	l.base.Debug(msg, fields...)
}

func (l *channelLogger) Info(msg string, fields ...interface{}) {
	if l.publish(LogChannelInfo, msg, fields) {
		l.base.Info(msg, fields...)
	}
}

func (l *channelLogger) Warn(msg string, fields ...interface{}) {
	if l.publish(LogChannelWarn, msg, fields) {
		l.base.Warn(msg, fields...)
	}
}

func (l *channelLogger) Error(msg string, fields ...interface{}) {
	if l.publish(LogChannelError, msg, fields) {
		l.base.Error(msg, fields...)
	}
}

func (l *channelLogger) publish(ch LogChannel, msg string, fields []interface{}) bool {
	if !l.channels.Enabled(ch) {
		return false
	}
	if l.emit != nil {
		l.emit(Event{
			Channel:   ch,
			Timestamp: time.Now(),
			Message:   msg + formatFields(fields...),
			Target:    "client",
		})
	}
	return true
}
