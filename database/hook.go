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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return fmt.Sprintf("%s%s%s", code, s, ansiReset) }

// QueryLogHook serves the query and error channels: it prints every executed
// statement to the writer and publishes query and error events.
type QueryLogHook struct {
	channels LogChannels
	writer   io.Writer
	logger   Logger
	emit     func(Event)
}

var _ bun.QueryHook = (*QueryLogHook)(nil)

// NewQueryLogHook returns a hook writing to w. A nil writer disables printing
// but events are still published.
func NewQueryLogHook(channels LogChannels, w io.Writer, logger Logger, emit func(Event)) *QueryLogHook {
	return &QueryLogHook{channels: channels, writer: w, logger: logger, emit: emit}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	now := time.Now()
	dur := now.Sub(event.StartTime)

	if event.Err != nil && !isBenignQueryError(event.Err) && h.channels.Enabled(LogChannelError) {
		if h.logger != nil {
			h.logger.Error("Query failed", "error", event.Err, "query", event.Query)
		}
		h.publish(Event{
			Channel:   LogChannelError,
			Timestamp: now,
			Message:   event.Err.Error(),
			Query:     event.Query,
			Duration:  dur,
			Target:    "query",
		})
	}

	if !h.channels.Enabled(LogChannelQuery) {
		return
	}
	if h.writer != nil {
		args := []interface{}{
			now.Format("2006-01-02 15:04:05.000"),
			colorWrap(fmt.Sprintf("%9s", "[QUERY]"), ansiCyan),
			fmt.Sprintf("%12s", dur.Round(time.Microsecond)),
			" ", formatOperationColor(event),
		}
		if event.Err != nil {
			typ := reflect.TypeOf(event.Err).String()
			args = append(args,
				"\t",
				color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()),
			)
		}
		_, _ = fmt.Fprintln(h.writer, args...)
	}
	h.publish(Event{
		Channel:   LogChannelQuery,
		Timestamp: now,
		Message:   event.Query,
		Query:     event.Query,
		Duration:  dur,
		Target:    "query",
	})
}

func (h *QueryLogHook) publish(e Event) {
	if h.emit != nil {
		h.emit(e)
	}
}

func isBenignQueryError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, sql.ErrTxDone)
}

func formatOperationColor(event *bun.QueryEvent) string {
	switch event.Operation() {
	case "SELECT":
		return colorWrap(event.Query, ansiGreen)
	case "INSERT":
		return colorWrap(event.Query, ansiBlue)
	case "UPDATE":
		return colorWrap(event.Query, ansiYellow)
	case "DELETE":
		return colorWrap(event.Query, ansiMagenta)
	default:
		return colorWrap(event.Query, ansiRed)
	}
}

// slowQueryHook reports statements slower than slowTime on the warn channel.
// The logger is expected to be channel filtered.
type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}

	duration := time.Since(event.StartTime)
	if duration > h.slowTime {
		h.logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
