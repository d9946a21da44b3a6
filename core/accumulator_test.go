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

package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedCounterAddSum(t *testing.T) {
	c := newStripedCounter(8)
	for i := 0; i < 100; i++ {
		c.Add(1)
	}
	assert.EqualValues(t, 100, c.Sum())
}

func TestStripedCounterConcurrentAdd(t *testing.T) {
	c := newStripedCounter(16)
	var wg sync.WaitGroup
	const goroutines, perGoroutine = 32, 1000
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, goroutines*perGoroutine, c.Sum())
}

func TestStripedCounterReset(t *testing.T) {
	c := newStripedCounter(4)
	c.Add(5)
	c.Add(7)
	prior := c.Reset()
	assert.EqualValues(t, 12, prior)
	assert.EqualValues(t, 0, c.Sum())
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, nextPow2(1))
	assert.Equal(t, 4, nextPow2(3))
	assert.Equal(t, 8, nextPow2(8))
	assert.Equal(t, 16, nextPow2(9))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 4, clampInt(1, 4, 64))
	assert.Equal(t, 64, clampInt(100, 4, 64))
	assert.Equal(t, 10, clampInt(10, 4, 64))
}
