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

// Package logging is a thin log/slog wrapper giving every component the same
// activity/alias scoping convention, terse lines in the same voice as the
// rest of this module (field pairs, no multi-line messages).
package logging

import (
	"log/slog"
	"os"
)

// New builds a text-handler logger at the given level, writing to stderr.
func New(level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// ForActivity scopes logger with an "activity" field, used by the Activity
// Runtime and every Motor it spawns.
func ForActivity(logger *slog.Logger, activity string) *slog.Logger {
	return logger.With("activity", activity)
}

// ForMotor further scopes an activity-level logger with a "slot" field.
func ForMotor(logger *slog.Logger, slot int) *slog.Logger {
	return logger.With("slot", slot)
}
