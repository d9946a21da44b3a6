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
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS engineblock_checkpoints (
//   activity  TEXT PRIMARY KEY,
//   watermark BIGINT NOT NULL
// );
//
// CREATE TABLE IF NOT EXISTS engineblock_applied_commits (
//   commit_id TEXT PRIMARY KEY,
//   activity  TEXT NOT NULL,
//   watermark BIGINT NOT NULL,
//   ts        TIMESTAMPTZ NOT NULL DEFAULT now()
// );
//
// Idempotent transaction per checkpoint:
//   INSERT INTO engineblock_applied_commits(commit_id, activity, watermark) VALUES ($1,$2,$3)
//     ON CONFLICT DO NOTHING;
//   -- only when that INSERT added a row (the commit_id is new):
//   UPDATE engineblock_checkpoints SET watermark = $2 WHERE activity = $1;

// PostgresPersister commits checkpoints idempotently using the pattern above.
type PostgresPersister struct {
	db             *sql.DB
	defaultTimeout time.Duration
}

// NewPostgresPersister wraps an already-open *sql.DB. Schema creation is the
// caller's responsibility (see the reference DDL above).
func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db, defaultTimeout: 10 * time.Second}
}

func (p *PostgresPersister) CommitCheckpoint(ctx context.Context, cp Checkpoint) error {
	if cp.CommitID == "" {
		return errors.New("persistence: Checkpoint.CommitID must be set")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && p.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.defaultTimeout)
		defer cancel()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO engineblock_checkpoints(activity, watermark) VALUES ($1, 0) ON CONFLICT DO NOTHING`,
		cp.Activity); err != nil {
		return fmt.Errorf("insert engineblock_checkpoints(%s): %w", cp.Activity, err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO engineblock_applied_commits(commit_id, activity, watermark) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		cp.CommitID, cp.Activity, cp.Watermark)
	if err != nil {
		return fmt.Errorf("insert engineblock_applied_commits(%s): %w", cp.CommitID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert engineblock_applied_commits(%s): %w", cp.CommitID, err)
	}
	if inserted == 0 {
		// commit_id already applied: leave the watermark as it is.
		return tx.Commit()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE engineblock_checkpoints SET watermark = $2 WHERE activity = $1`,
		cp.Activity, cp.Watermark); err != nil {
		return fmt.Errorf("update engineblock_checkpoints(%s): %w", cp.Activity, err)
	}

	return tx.Commit()
}

func (p *PostgresPersister) Close() error { return p.db.Close() }

func (p *PostgresPersister) PrintSummary() {
	fmt.Println("checkpoint summary: committed to postgres, see engineblock_checkpoints")
}

var _ CheckpointPersister = (*PostgresPersister)(nil)
