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

	"gopkg.in/yaml.v3"
)

// LogChannel names a category of client diagnostics that can be enabled.
type LogChannel string

const (
	LogChannelQuery LogChannel = "query"
	LogChannelInfo  LogChannel = "info"
	LogChannelWarn  LogChannel = "warn"
	LogChannelError LogChannel = "error"
)

// channelNone disables every channel when used as the whole channel list.
const channelNone = "none"

var allLogChannels = []LogChannel{LogChannelQuery, LogChannelInfo, LogChannelWarn, LogChannelError}

// IsValid reports whether the channel is one of the known channels.
func (c LogChannel) IsValid() bool {
	for _, ch := range allLogChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// LogChannels is an ordered set of enabled channels. A nil value means the
// default set; an empty non-nil value means every channel is disabled.
type LogChannels []LogChannel

// DefaultLogChannels returns the development default: query, info, warn and error.
func DefaultLogChannels() LogChannels {
	out := make(LogChannels, len(allLogChannels))
	copy(out, allLogChannels)
	return out
}

// ParseLogChannels parses a comma separated channel list such as
// "query,warn,error". The literal "none" yields an empty set; a list without
// any channel name is an error.
func ParseLogChannels(s string) (LogChannels, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, channelNone) {
		return LogChannels{}, nil
	}
	return parseChannelNames(strings.Split(s, ","))
}

func parseChannelNames(names []string) (LogChannels, error) {
	out := LogChannels{}
	for _, part := range names {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		ch := LogChannel(name)
		if !ch.IsValid() {
			return nil, fmt.Errorf("unknown log channel: %q, supported channels: %v", part, allLogChannels)
		}
		if !out.Enabled(ch) {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no log channel given, use %q to disable all channels", channelNone)
	}
	return out, nil
}

// UnmarshalYAML accepts a sequence of channel names or a comma separated
// string, with the same rules as ParseLogChannels.
func (cs *LogChannels) UnmarshalYAML(value *yaml.Node) error {
	var (
		parsed LogChannels
		err    error
	)
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err = ParseLogChannels(value.Value)
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		if len(names) == 1 && strings.EqualFold(strings.TrimSpace(names[0]), channelNone) {
			parsed = LogChannels{}
		} else {
			parsed, err = parseChannelNames(names)
		}
	default:
		return fmt.Errorf("log channels must be a list or a comma separated string")
	}
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// Enabled reports whether ch is part of the set.
func (cs LogChannels) Enabled(ch LogChannel) bool {
	for _, c := range cs {
		if c == ch {
			return true
		}
	}
	return false
}

// Validate rejects unknown channel names. Names are compared after
// trimming and lowercasing, as Normalize stores them.
func (cs LogChannels) Validate() error {
	_, err := cs.Normalize()
	return err
}

// Normalize returns the set with trimmed lowercase names and duplicates
// removed. nil stays nil so the default still applies.
func (cs LogChannels) Normalize() (LogChannels, error) {
	if cs == nil {
		return nil, nil
	}
	out := LogChannels{}
	for _, c := range cs {
		ch := LogChannel(strings.ToLower(strings.TrimSpace(string(c))))
		if !ch.IsValid() {
			return nil, fmt.Errorf("unknown log channel: %q", string(c))
		}
		if !out.Enabled(ch) {
			out = append(out, ch)
		}
	}
	return out, nil
}

// OrDefault returns the default channel set when cs is nil.
func (cs LogChannels) OrDefault() LogChannels {
	if cs == nil {
		return DefaultLogChannels()
	}
	out := make(LogChannels, len(cs))
	copy(out, cs)
	return out
}

func (cs LogChannels) String() string {
	if len(cs) == 0 {
		return channelNone
	}
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}
