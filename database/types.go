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
	"time"

	"github.com/uptrace/bun"
)

const (
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

// Manager defines the operations for managing a database connection and
// reporting its health.
type Manager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	StartHealthCheck()
	Close() error
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// ConfigProvider exposes configuration loading to the client provider.
type ConfigProvider interface {
	ConfigLoader() (*Config, error)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	URL                 string            `yaml:"url" json:"url"`
	Type                string            `yaml:"type" json:"type"` // postgres、mysql、sqlite
	Host                string            `yaml:"host" json:"host"`
	Port                int               `yaml:"port" json:"port"`
	Username            string            `yaml:"username" json:"username"`
	Password            string            `yaml:"password" json:"password"`
	DBName              string            `yaml:"dbname" json:"dbname"`
	Path                string            `yaml:"path" json:"path"` // sqlite file
	SSLMode             string            `yaml:"sslmode" json:"sslmode"`
	Charset             string            `yaml:"charset" json:"charset"`
	Params              map[string]string `yaml:"params" json:"params"`
	MaxIdleConns        int               `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns        int               `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime     time.Duration     `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration     `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout      time.Duration     `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout         time.Duration     `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout        time.Duration     `yaml:"write_timeout" json:"write_timeout"`
	EnableReconnect     bool              `yaml:"enable_reconnect" json:"enable_reconnect"`
	ReconnectInterval   time.Duration     `yaml:"reconnect_interval" json:"reconnect_interval"`
	MaxReconnectTries   int               `yaml:"max_reconnect_tries" json:"max_reconnect_tries"`
	HealthCheckInterval time.Duration     `yaml:"health_check_interval" json:"health_check_interval"`
	EnableQueryLog      bool              `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime       time.Duration     `yaml:"slow_query_time" json:"slow_query_time"`
}

// LogConfig selects the enabled log channels and the client logger level.
type LogConfig struct {
	Channels LogChannels `yaml:"channels" json:"channels"`
	Level    string      `yaml:"level" json:"level"`
}

// Config aggregates connection and logging settings.
type Config struct {
	Connection ConnectionConfig `yaml:"connection" json:"connection"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// ConfigLoader lets a static Config act as a ConfigProvider.
func (c *Config) ConfigLoader() (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	return c, nil
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     time.Minute * 30,
		ConnectTimeout:      time.Second * 10,
		ReadTimeout:         time.Second * 30,
		WriteTimeout:        time.Second * 30,
		EnableReconnect:     true,
		ReconnectInterval:   time.Second * 5,
		MaxReconnectTries:   3,
		HealthCheckInterval: time.Minute * 5,
		EnableQueryLog:      false,
		SlowQueryTime:       time.Second * 2,
	}
}

// DefaultConfig returns the default connection settings with every log
// channel enabled.
func DefaultConfig() *Config {
	return &Config{Connection: *DefaultConnectionConfig()}
}

// Validate normalizes the connection type and checks that enough is known to
// open a connection.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	conn := &c.Connection
	if conn.Type == "" && conn.URL != "" {
		if err := conn.ApplyURL(conn.URL); err != nil {
			return err
		}
	}
	if conn.Type == "" {
		return fmt.Errorf("database connection is not configured, set %s or the connection type", EnvDatabaseURL)
	}
	conn.Type = normalizeType(conn.Type)

	supported := false
	for _, t := range supportedTypes {
		if conn.Type == t {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database type: %s, supported types: %v", conn.Type, supportedTypes)
	}
	if conn.Type != TypeSQLite && conn.Host == "" {
		return fmt.Errorf("database host is required for %s", conn.Type)
	}
	if conn.Type == TypeSQLite && conn.Path == "" && conn.DBName == "" {
		return fmt.Errorf("sqlite requires a file path or database name")
	}
	channels, err := c.Log.Channels.Normalize()
	if err != nil {
		return err
	}
	c.Log.Channels = channels
	return nil
}

func normalizeType(t string) string {
	switch t {
	case "postgresql", "pg":
		return TypePostgres
	case "sqlite3", "file":
		return TypeSQLite
	default:
		return t
	}
}
