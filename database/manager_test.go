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
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// mockOpener hands out the given sqlmock connections in order.
func mockOpener(t *testing.T, dbs ...*sql.DB) openFunc {
	t.Helper()
	next := 0
	return func(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
		if next >= len(dbs) {
			return nil, nil, errors.New("no more mock connections")
		}
		db := dbs[next]
		next++
		return db, sqlitedialect.New(), nil
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

func mockConfig() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = TypeSQLite
	cfg.Path = "mock.db"
	cfg.HealthCheckInterval = 0
	return cfg
}

func TestManagerConnectAndClose(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("server has gone away"))
	mock.ExpectClose()

	dm := newDatabaseManager(mockConfig(), mockOpener(t, db))
	ctx := context.Background()

	require.NoError(t, dm.Connect(ctx))
	assert.NotNil(t, dm.GetDB())
	assert.NotNil(t, dm.GetSQLDB())
	// already connected: no second ping
	require.NoError(t, dm.Connect(ctx))

	status := dm.HealthCheck(ctx)
	assert.False(t, status.Healthy)
	assert.False(t, status.Connected)
	assert.Equal(t, "server has gone away", status.LastError)

	require.NoError(t, dm.Close())
	assert.Nil(t, dm.GetDB())
	require.NoError(t, dm.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerConnectPingFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	dm := newDatabaseManager(mockConfig(), mockOpener(t, db))
	err := dm.Connect(context.Background())
	assert.ErrorContains(t, err, "database connection test failed")
	assert.Nil(t, dm.GetDB())
	assert.Equal(t, &DBStats{}, dm.GetStats())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagerConnectOpenFailure(t *testing.T) {
	dm := newDatabaseManager(mockConfig(), mockOpener(t))
	err := dm.Connect(context.Background())
	assert.ErrorContains(t, err, "failed to create database connection")
}

func TestManagerReconnect(t *testing.T) {
	first, firstMock := newMock(t)
	firstMock.ExpectPing()
	firstMock.ExpectClose()
	second, secondMock := newMock(t)
	secondMock.ExpectPing()
	secondMock.ExpectPing()

	log := &recordingLogger{}
	dm := newDatabaseManager(mockConfig(), mockOpener(t, first, second))
	dm.SetLogger(log)
	ctx := context.Background()

	require.NoError(t, dm.Connect(ctx))
	before := dm.GetDB()
	require.NoError(t, dm.Reconnect(ctx))
	assert.NotSame(t, before, dm.GetDB())

	status := dm.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.LastError)

	assert.NoError(t, firstMock.ExpectationsWereMet())
	assert.NoError(t, secondMock.ExpectationsWereMet())
	assert.Contains(t, log.messages(LogLevelInfo), "Attempting to reconnect to the database")
	assert.Contains(t, log.messages(LogLevelInfo), "Database connection closed")
}

func TestManagerNotConnected(t *testing.T) {
	dm := newDatabaseManager(nil, mockOpener(t))
	ctx := context.Background()

	assert.Error(t, dm.Ping(ctx))
	status := dm.HealthCheck(ctx)
	assert.False(t, status.Healthy)
	assert.Equal(t, "Database not initialized", status.LastError)
	assert.NoError(t, dm.Disconnect())

	// interval from the default config is positive; Close must stop the loop
	dm.StartHealthCheck()
	assert.NoError(t, dm.Close())
}

func TestManagerConnectAfterClose(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectPing()
	mock.ExpectClose()

	dm := newDatabaseManager(mockConfig(), mockOpener(t, db))
	ctx := context.Background()
	require.NoError(t, dm.Connect(ctx))
	require.NoError(t, dm.Close())

	assert.ErrorIs(t, dm.Connect(ctx), ErrClientClosed)
	assert.ErrorIs(t, dm.Reconnect(ctx), ErrClientClosed)
	assert.Nil(t, dm.GetDB())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// failingOpener counts opens; every connection it hands out fails its ping.
func failingOpener(opens *atomic.Int32) openFunc {
	return func(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
		opens.Add(1)
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, nil, err
		}
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectClose()
		return db, sqlitedialect.New(), nil
	}
}

func loopConfig() *ConnectionConfig {
	cfg := mockConfig()
	cfg.HealthCheckInterval = 5 * time.Millisecond
	cfg.EnableReconnect = true
	cfg.ReconnectInterval = time.Millisecond
	cfg.ConnectTimeout = time.Second
	return cfg
}

func TestHealthCheckLoopReconnectsUpToMaxTries(t *testing.T) {
	first, firstMock := newMock(t)
	firstMock.ExpectPing()
	firstMock.ExpectPing().WillReturnError(errors.New("server has gone away"))
	firstMock.ExpectClose()

	var opens atomic.Int32
	failing := failingOpener(&opens)
	open := func(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
		if opens.Load() == 0 {
			opens.Add(1)
			return first, sqlitedialect.New(), nil
		}
		return failing(cfg)
	}

	cfg := loopConfig()
	cfg.MaxReconnectTries = 2
	log := &recordingLogger{}
	dm := newDatabaseManager(cfg, open)
	dm.SetLogger(log)
	require.NoError(t, dm.Connect(context.Background()))

	dm.StartHealthCheck()
	require.Eventually(t, func() bool {
		return contains(log.messages(LogLevelError), "Max reconnect attempts reached, stopping")
	}, 2*time.Second, 5*time.Millisecond)

	// the initial connection plus one per allowed try
	assert.EqualValues(t, 3, opens.Load())
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, opens.Load())
	assert.Len(t, filter(log.messages(LogLevelInfo), "Starting database reconnect"), 2)

	require.NoError(t, dm.Close())
	assert.NoError(t, firstMock.ExpectationsWereMet())
}

func TestHealthCheckLoopStopsAfterClose(t *testing.T) {
	first, firstMock := newMock(t)
	firstMock.ExpectPing()
	firstMock.ExpectPing().WillReturnError(errors.New("server has gone away"))
	firstMock.ExpectClose()

	var opens atomic.Int32
	failing := failingOpener(&opens)
	open := func(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
		if opens.Load() == 0 {
			opens.Add(1)
			return first, sqlitedialect.New(), nil
		}
		return failing(cfg)
	}

	cfg := loopConfig()
	cfg.MaxReconnectTries = 100
	cfg.ReconnectInterval = time.Hour
	log := &recordingLogger{}
	dm := newDatabaseManager(cfg, open)
	dm.SetLogger(log)
	require.NoError(t, dm.Connect(context.Background()))

	dm.StartHealthCheck()
	// the loop is now waiting out the reconnect interval
	require.Eventually(t, func() bool {
		return contains(log.messages(LogLevelInfo), "Starting database reconnect")
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, dm.Close())
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, opens.Load())
	assert.Nil(t, dm.GetDB())
	assert.NotContains(t, log.messages(LogLevelInfo), "Attempting to reconnect to the database")
	assert.NoError(t, firstMock.ExpectationsWereMet())
}

func contains(msgs []string, msg string) bool {
	return len(filter(msgs, msg)) > 0
}

func filter(msgs []string, msg string) []string {
	var out []string
	for _, m := range msgs {
		if m == msg {
			out = append(out, m)
		}
	}
	return out
}
