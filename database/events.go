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
	"sync"
	"time"
)

// Event is a diagnostic record published on one log channel.
type Event struct {
	Channel   LogChannel
	Timestamp time.Time
	Message   string
	// Query and Duration are set for events produced by executed queries.
	Query    string
	Duration time.Duration
	Target   string
}

// EventHandler receives events synchronously on the goroutine that produced them.
type EventHandler func(Event)

type eventBus struct {
	mu       sync.RWMutex
	handlers map[LogChannel][]EventHandler
}

func newEventBus() *eventBus {
	return &eventBus{handlers: make(map[LogChannel][]EventHandler)}
}

func (b *eventBus) subscribe(ch LogChannel, h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[ch] = append(b.handlers[ch], h)
}

func (b *eventBus) publish(e Event) {
	b.mu.RLock()
	hs := b.handlers[e.Channel]
	b.mu.RUnlock()
	for _, h := range hs {
		h(e)
	}
}
