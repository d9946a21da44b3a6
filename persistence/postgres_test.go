// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal fake database/sql driver, grounded on the teacher's own
// persistence test fixture, to exercise the transaction shape without a
// live Postgres instance.

type fakeDB struct {
	execs         []string
	failBegin     error
	failCommit    error
	failExecAt    map[int]error
	commitCount   int
	rollbackCount int
}

type fakeDriver struct{}
type fakeConn struct{ db *fakeDB }
type fakeTx struct {
	db     *fakeDB
	closed bool
}
type fakeResult int

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func (fakeDriver) Open(name string) (driver.Conn, error) { return &fakeConn{db: testFakeDB}, nil }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *fakeConn) Close() error                              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)                 { return c.BeginTx(context.Background(), driver.TxOptions{}) }
func (c *fakeConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if c.db.failBegin != nil {
		return nil, c.db.failBegin
	}
	return &fakeTx{db: c.db}, nil
}
func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.db.execs = append(c.db.execs, query)
	idx := len(c.db.execs)
	if c.db.failExecAt != nil {
		if err, ok := c.db.failExecAt[idx]; ok {
			return nil, err
		}
	}
	return fakeResult(1), nil
}

func (t *fakeTx) Commit() error {
	if t.closed {
		return errors.New("already closed")
	}
	t.db.commitCount++
	t.closed = true
	return t.db.failCommit
}
func (t *fakeTx) Rollback() error {
	if t.closed {
		return nil
	}
	t.db.rollbackCount++
	t.closed = true
	return nil
}

var testFakeDB *fakeDB

func init() {
	sql.Register("fakesql-engineblock", fakeDriver{})
}

func newSQLDBWithFake(db *fakeDB) *sql.DB {
	testFakeDB = db
	d, _ := sql.Open("fakesql-engineblock", "")
	return d
}

func TestPostgresPersisterCommitsThroughAllThreeStatements(t *testing.T) {
	f := &fakeDB{}
	db := newSQLDBWithFake(f)
	p := NewPostgresPersister(db)

	err := p.CommitCheckpoint(context.Background(), Checkpoint{Activity: "insert-main", Watermark: 42, CommitID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.commitCount)
	assert.Equal(t, 0, f.rollbackCount)
	require.Len(t, f.execs, 3)
	assert.True(t, strings.Contains(f.execs[0], "INSERT INTO engineblock_checkpoints"))
	assert.True(t, strings.Contains(f.execs[1], "INSERT INTO engineblock_applied_commits"))
	assert.True(t, strings.Contains(f.execs[2], "UPDATE engineblock_checkpoints"))
}

func TestPostgresPersisterRejectsMissingCommitID(t *testing.T) {
	f := &fakeDB{}
	db := newSQLDBWithFake(f)
	p := NewPostgresPersister(db)

	err := p.CommitCheckpoint(context.Background(), Checkpoint{Activity: "insert-main", Watermark: 1})
	require.Error(t, err)
	assert.Empty(t, f.execs, "no statements should run before the commit_id check")
}

func TestPostgresPersisterExecErrorRollsBack(t *testing.T) {
	f := &fakeDB{failExecAt: map[int]error{2: errors.New("boom")}}
	db := newSQLDBWithFake(f)
	p := NewPostgresPersister(db)

	err := p.CommitCheckpoint(context.Background(), Checkpoint{Activity: "insert-main", Watermark: 1, CommitID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, f.rollbackCount)
	assert.Equal(t, 0, f.commitCount)
}

func TestPostgresPersisterCommitErrorPropagates(t *testing.T) {
	f := &fakeDB{failCommit: errors.New("commit-fail")}
	db := newSQLDBWithFake(f)
	p := NewPostgresPersister(db)

	err := p.CommitCheckpoint(context.Background(), Checkpoint{Activity: "insert-main", Watermark: 1, CommitID: "c1"})
	require.Error(t, err)
	assert.Equal(t, "commit-fail", err.Error())
	assert.Equal(t, 1, f.commitCount)
}
