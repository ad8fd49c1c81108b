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

package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("loud"))
}

func TestNewLoggerRegistry(t *testing.T) {
	l := NewLogger("registry-test")
	assert.Same(t, l, NewLogger("registry-test"))

	found, ok := LookupLogger("registry-test")
	require.True(t, ok)
	assert.Same(t, l, found)

	assert.True(t, SetLoggerLevel("registry-test", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("never-registered", "error"))
}

func TestSetAllLoggersLevel(t *testing.T) {
	a := NewLogger("all-level-a")
	b := NewLogger("all-level-b")
	t.Cleanup(func() { SetAllLoggersLevel(logrus.InfoLevel) })

	SetAllLoggersLevel(logrus.WarnLevel)
	assert.Equal(t, logrus.WarnLevel, a.GetLevel())
	assert.Equal(t, logrus.WarnLevel, b.GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("all-level-c").GetLevel())
}

func TestTextLogFormatter(t *testing.T) {
	f := &TextLogFormatter{LoggerName: "DATABASE", NameWidth: 10}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"table": "users", "duration": "2s"},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "2025-03-01 12:30:00.000  WARN "))
	assert.Contains(t, line, "--- [  DATABASE] : slow query duration=2s table=users\n")
	assert.NotContains(t, line, "\x1b[")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "DATABASE"}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.ErrorLevel,
		Message: "query failed",
		Data:    logrus.Fields{"error": errors.New("no such table: users")},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "query failed", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "no such table: users"}, rec["fields"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "")
	assert.Equal(t, "fallback", EnvDefaultString("UTILS_TEST_STR", "fallback"))
	t.Setenv("UTILS_TEST_STR", "set")
	assert.Equal(t, "set", EnvDefaultString("UTILS_TEST_STR", "fallback"))

	t.Setenv("UTILS_TEST_BOOL", "true")
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))

	t.Setenv("UTILS_TEST_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, EnvDefaultDuration("UTILS_TEST_DUR", time.Second))
	t.Setenv("UTILS_TEST_DUR", "soon")
	assert.Equal(t, time.Second, EnvDefaultDuration("UTILS_TEST_DUR", time.Second))
}
