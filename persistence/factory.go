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
	"database/sql"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// BuildOptions holds the knobs the CLI harness exposes for selecting and
// configuring a checkpoint backend.
type BuildOptions struct {
	RedisAddr      string
	RedisMarkerTTL time.Duration
	PostgresDSN    string
}

// BuildPersister constructs a CheckpointPersister from a string selector:
// "memory" (default), "redis", or "postgres".
func BuildPersister(backend string, opts BuildOptions) (CheckpointPersister, error) {
	switch backend {
	case "", "memory":
		return NewInMemoryPersister(), nil
	case "redis":
		addr := opts.RedisAddr
		if addr == "" {
			addr = "127.0.0.1:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		return NewRedisPersister(client, opts.RedisMarkerTTL), nil
	case "postgres":
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("persistence: postgres backend requires a DSN")
		}
		db, err := sql.Open("postgres", opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("persistence: open postgres: %w", err)
		}
		return NewPostgresPersister(db), nil
	default:
		return nil, fmt.Errorf("persistence: unknown checkpoint backend %q", backend)
	}
}
