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
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	opConfig  = "config"
	opConnect = "connect"
)

// Client is a connected database handle with channel based logging. One
// Client owns one connection pool; share it instead of creating more.
type Client struct {
	id       string
	config   *Config
	channels LogChannels
	manager  Manager
	logger   Logger
	events   *eventBus
	models   ModelRegistry
}

type clientOptions struct {
	logger      Logger
	queryWriter io.Writer
	registry    ModelRegistry
	open        openFunc
}

// ClientOption customizes NewClient.
type ClientOption func(*clientOptions)

// WithLogger replaces the default DATABASE logger.
func WithLogger(l Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l }
}

// WithQueryWriter sets where query channel lines are printed; nil prints nothing.
func WithQueryWriter(w io.Writer) ClientOption {
	return func(o *clientOptions) { o.queryWriter = w }
}

// WithModelRegistry uses r instead of the default model registry.
func WithModelRegistry(r ModelRegistry) ClientOption {
	return func(o *clientOptions) { o.registry = r }
}

func withOpener(open openFunc) ClientOption {
	return func(o *clientOptions) { o.open = open }
}

// NewClient validates cfg, opens the connection pool and verifies it with a
// ping. Every failure is returned as *InitializationError.
func NewClient(ctx context.Context, cfg *Config, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{
		queryWriter: os.Stdout,
		registry:    defaultRegistry,
		open:        openConnection,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, newInitializationError(opConfig, err)
	}

	base := o.logger
	if base == nil {
		base = GetLogger()
	}
	if cfg.Log.Level != "" {
		base.SetLevel(ParseLogLevel(cfg.Log.Level))
	}

	c := &Client{
		id:       uuid.NewString(),
		config:   cfg,
		channels: cfg.Log.Channels.OrDefault(),
		events:   newEventBus(),
		models:   o.registry,
	}
	c.logger = newChannelLogger(base, c.channels, c.events.publish)

	hooks := []bun.QueryHook{
		NewQueryLogHook(c.channels, o.queryWriter, base, c.events.publish),
	}
	if cfg.Connection.SlowQueryTime > 0 {
		hooks = append(hooks, &slowQueryHook{slowTime: cfg.Connection.SlowQueryTime, logger: c.logger})
	}

	manager := newDatabaseManager(&cfg.Connection, o.open, hooks...)
	manager.models = modelInstances(c.models)
	manager.SetLogger(c.logger)
	c.manager = manager

	if err := manager.Connect(ctx); err != nil {
		return nil, newInitializationError(opConnect, err)
	}
	manager.StartHealthCheck()

	c.logger.Info("Database client ready", "id", c.id, "log_channels", c.channels.String())
	return c, nil
}

// ID identifies this client instance.
func (c *Client) ID() string { return c.id }

// DB returns the underlying Bun database, or nil after Disconnect.
func (c *Client) DB() *bun.DB { return c.manager.GetDB() }

// LogChannels returns a copy of the enabled log channels.
func (c *Client) LogChannels() LogChannels { return c.channels.OrDefault() }

// On registers h for events of channel ch. Handlers for disabled channels are
// accepted but never called.
func (c *Client) On(ch LogChannel, h EventHandler) {
	if h == nil {
		return
	}
	c.events.subscribe(ch, h)
}

// Connect reopens the pool after Disconnect. It is a no-op when connected
// and fails with ErrClientClosed after Close.
func (c *Client) Connect(ctx context.Context) error { return c.manager.Connect(ctx) }

// Disconnect closes the pool; Connect may reopen it.
func (c *Client) Disconnect() error { return c.manager.Disconnect() }

// Close stops background health checks and closes the pool for good; the
// client cannot be reconnected afterwards.
func (c *Client) Close() error { return c.manager.Close() }

func (c *Client) Ping(ctx context.Context) error { return c.manager.Ping(ctx) }

func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	return c.manager.HealthCheck(ctx)
}

func (c *Client) Stats() *DBStats { return c.manager.GetStats() }

func (c *Client) connectedDB() (*bun.DB, error) {
	db := c.manager.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return db, nil
}

// Transaction runs fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back when it returns an error or panics.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	db, err := c.connectedDB()
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, nil, fn)
}

// QueryRaw runs a raw query and scans the rows into dest.
func (c *Client) QueryRaw(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := c.connectedDB()
	if err != nil {
		return err
	}
	return WrapQueryError(db.NewRaw(query, args...).Scan(ctx, dest))
}

// ExecuteRaw runs a raw statement and returns the number of affected rows.
func (c *Client) ExecuteRaw(ctx context.Context, query string, args ...interface{}) (int64, error) {
	db, err := c.connectedDB()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, WrapQueryError(err)
	}
	return rowsAffected(res), nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// CreateTables creates the tables of all registered models in priority order.
func (c *Client) CreateTables(ctx context.Context) error {
	return c.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range modelInstances(c.models) {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}
		return nil
	})
}
