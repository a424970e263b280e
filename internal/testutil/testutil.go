// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"socialdeck/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory sqlite database private to t.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewMockDB creates a GORM *gorm.DB backed by sqlmock for failure-path tests.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

// NewRedis starts a miniredis server and returns it with a connected client.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// ErrCommandRefused is returned by commands blocked with FailCommands.
var ErrCommandRefused = errors.New("redis: command refused")

// CommandFailer is a redis hook that fails the listed commands while enabled.
type CommandFailer struct {
	enabled  atomic.Bool
	commands map[string]struct{}
}

// FailCommands installs a CommandFailer on rdb. It starts disabled.
func FailCommands(rdb *redis.Client, names ...string) *CommandFailer {
	f := &CommandFailer{commands: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.commands[strings.ToLower(n)] = struct{}{}
	}
	rdb.AddHook(f)
	return f
}

// SetEnabled turns the failures on or off.
func (f *CommandFailer) SetEnabled(on bool) { f.enabled.Store(on) }

func (f *CommandFailer) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (f *CommandFailer) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if f.enabled.Load() {
			if _, ok := f.commands[strings.ToLower(cmd.Name())]; ok {
				cmd.SetErr(ErrCommandRefused)
				return ErrCommandRefused
			}
		}
		return next(ctx, cmd)
	}
}

func (f *CommandFailer) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
