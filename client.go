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

// Package dbclient provides the process-wide database client. The first call
// to GetClient builds it from the environment; every later call, from any
// goroutine, returns the same instance or the same initialization error.
package dbclient

import (
	"context"
	"sync"

	"github.com/tomoncle/dbclient/database"
)

// InitializationError is returned when the shared client cannot be built.
type InitializationError = database.InitializationError

// Provider builds one client from its configuration source on first use and
// holds it afterwards. A failed build is not retried.
type Provider struct {
	source database.ConfigProvider
	opts   []database.ClientOption

	once   sync.Once
	client *database.Client
	err    error
}

// NewProvider returns a provider reading its configuration from source.
func NewProvider(source database.ConfigProvider, opts ...database.ClientOption) *Provider {
	return &Provider{source: source, opts: opts}
}

// Client returns the provider's client, building it on the first call.
func (p *Provider) Client() (*database.Client, error) {
	p.once.Do(func() {
		p.client, p.err = p.build()
	})
	return p.client, p.err
}

func (p *Provider) build() (*database.Client, error) {
	if p.source == nil {
		return nil, &InitializationError{Op: "config", Err: errNoConfigSource}
	}
	cfg, err := p.source.ConfigLoader()
	if err != nil {
		return nil, &InitializationError{Op: "config", Err: err}
	}
	client, err := database.NewClient(context.Background(), cfg, p.opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close closes the client if it was built successfully. The closed client
// stays in the provider and refuses to reconnect.
func (p *Provider) Close() error {
	client, err := p.peek()
	if client == nil || err != nil {
		return nil
	}
	return client.Close()
}

// peek returns the current state without triggering a build.
func (p *Provider) peek() (client *database.Client, err error) {
	p.once.Do(func() {
		// Close ran before anything asked for the client; from now on the
		// provider reports that it was closed unused.
		p.err = &InitializationError{Op: "config", Err: errClosedUnused}
	})
	return p.client, p.err
}

var defaultProvider = NewProvider(database.EnvConfig{})

// GetClient returns the process-wide client configured from DATABASE_URL and
// the DB_* environment variables.
func GetClient() (*database.Client, error) {
	return defaultProvider.Client()
}

// Close disconnects the process-wide client for good if it was created.
func Close() error {
	return defaultProvider.Close()
}
