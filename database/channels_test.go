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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultLogChannels(t *testing.T) {
	assert.Equal(t, LogChannels{LogChannelQuery, LogChannelInfo, LogChannelWarn, LogChannelError}, DefaultLogChannels())

	// callers get their own copy
	a := DefaultLogChannels()
	a[0] = LogChannelError
	assert.Equal(t, LogChannelQuery, DefaultLogChannels()[0])
}

func TestParseLogChannels(t *testing.T) {
	tests := []struct {
		in   string
		want LogChannels
	}{
		{"query,info,warn,error", LogChannels{LogChannelQuery, LogChannelInfo, LogChannelWarn, LogChannelError}},
		{" WARN , error ", LogChannels{LogChannelWarn, LogChannelError}},
		{"error,error,query", LogChannels{LogChannelError, LogChannelQuery}},
		{"none", LogChannels{}},
		{" NONE ", LogChannels{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogChannels(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLogChannels("query,debug")
	assert.ErrorContains(t, err, "debug")

	// only "none" turns every channel off
	for _, in := range []string{"", " , ", ",,"} {
		_, err := ParseLogChannels(in)
		assert.ErrorContains(t, err, "no log channel given", "input %q", in)
	}
}

func TestLogChannelsNormalize(t *testing.T) {
	got, err := LogChannels{" Query", "WARN", "warn"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, LogChannels{LogChannelQuery, LogChannelWarn}, got)

	got, err = LogChannels(nil).Normalize()
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = LogChannels{"Verbose"}.Normalize()
	assert.Error(t, err)
}

func TestLogChannelsUnmarshalYAML(t *testing.T) {
	tests := []struct {
		doc  string
		want LogChannels
	}{
		{"channels: [Query, WARN]", LogChannels{LogChannelQuery, LogChannelWarn}},
		{"channels: info, error", LogChannels{LogChannelInfo, LogChannelError}},
		{"channels: none", LogChannels{}},
		{"channels: [none]", LogChannels{}},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			var cfg LogConfig
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &cfg))
			assert.Equal(t, tt.want, cfg.Channels)
		})
	}

	for _, doc := range []string{"channels: []", "channels: ','", "channels: [query, chatty]", "channels: {a: b}"} {
		var cfg LogConfig
		assert.Error(t, yaml.Unmarshal([]byte(doc), &cfg), doc)
	}
}

func TestLogChannelsOrDefault(t *testing.T) {
	var unset LogChannels
	assert.Equal(t, DefaultLogChannels(), unset.OrDefault())
	assert.Empty(t, LogChannels{}.OrDefault())
	assert.NotNil(t, LogChannels{}.OrDefault())

	cs := LogChannels{LogChannelWarn}
	assert.True(t, cs.Enabled(LogChannelWarn))
	assert.False(t, cs.Enabled(LogChannelQuery))
	assert.Equal(t, "warn", cs.String())
	assert.Equal(t, "none", LogChannels{}.String())
}

func TestLogChannelsValidate(t *testing.T) {
	assert.NoError(t, DefaultLogChannels().Validate())
	assert.Error(t, LogChannels{"verbose"}.Validate())
	assert.NoError(t, LogChannels{"ERROR"}.Validate())
}
