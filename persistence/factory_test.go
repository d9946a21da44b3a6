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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPersisterDefaultsToMemory(t *testing.T) {
	p, err := BuildPersister("", BuildOptions{})
	require.NoError(t, err)
	_, ok := p.(*InMemoryPersister)
	assert.True(t, ok)

	p, err = BuildPersister("memory", BuildOptions{})
	require.NoError(t, err)
	_, ok = p.(*InMemoryPersister)
	assert.True(t, ok)
}

func TestBuildPersisterRedis(t *testing.T) {
	p, err := BuildPersister("redis", BuildOptions{RedisAddr: "127.0.0.1:6379"})
	require.NoError(t, err)
	_, ok := p.(*RedisPersister)
	assert.True(t, ok)
}

func TestBuildPersisterPostgresRequiresDSN(t *testing.T) {
	_, err := BuildPersister("postgres", BuildOptions{})
	require.Error(t, err)
}

func TestBuildPersisterRejectsUnknownBackend(t *testing.T) {
	_, err := BuildPersister("carrier-pigeon", BuildOptions{})
	require.Error(t, err)
}
