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

package activity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stef1927/engineblock/core"
)

// ActivityDef is the external key->value definition of one scenario: alias,
// thread count, stride, sync/async mode, and up to three rate specs
// (cyclerate/striderate/phaserate), each in "<ops/s>[,<strictness>[,report]]"
// form. Raw preserves every key the caller supplied, including ones this
// struct doesn't interpret, so a CLI harness can round-trip unknown keys.
type ActivityDef struct {
	Alias   string
	Threads int
	Stride  int32
	Async   bool

	CycleRate  string
	StrideRate string
	PhaseRate  string

	Raw map[string]string
}

// ParseActivityDef builds an ActivityDef from the raw key->value map an
// activity definition line supplies, applying the documented defaults
// (threads=1, stride=1, async=false) for keys the caller omits.
func ParseActivityDef(values map[string]string) (ActivityDef, error) {
	def := ActivityDef{
		Alias:   values["alias"],
		Threads: 1,
		Stride:  1,
		Raw:     values,
	}
	if def.Alias == "" {
		return ActivityDef{}, &core.ConfigError{Reason: "activity definition missing required key \"alias\""}
	}

	if v, ok := values["threads"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return ActivityDef{}, &core.ConfigError{Reason: fmt.Sprintf("activity %q: threads must be a positive integer, got %q", def.Alias, v)}
		}
		def.Threads = n
	}
	if v, ok := values["stride"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return ActivityDef{}, &core.ConfigError{Reason: fmt.Sprintf("activity %q: stride must be a positive integer, got %q", def.Alias, v)}
		}
		def.Stride = int32(n)
	}
	if v, ok := values["async"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ActivityDef{}, &core.ConfigError{Reason: fmt.Sprintf("activity %q: async must be a bool, got %q", def.Alias, v)}
		}
		def.Async = b
	}

	def.CycleRate = values["cyclerate"]
	def.StrideRate = values["striderate"]
	def.PhaseRate = values["phaserate"]
	return def, nil
}

// Validate enforces the constraints ParseActivityDef alone can't: a rate
// must parse, and async must agree with the Action the caller is pairing
// this definition with.
func (d ActivityDef) Validate(action core.Action) error {
	if d.Threads <= 0 {
		return &core.ConfigError{Reason: fmt.Sprintf("activity %q: threads must be > 0", d.Alias)}
	}
	if d.Stride <= 0 {
		return &core.ConfigError{Reason: fmt.Sprintf("activity %q: stride must be > 0", d.Alias)}
	}
	if d.Async != action.IsAsync() {
		return &core.ConfigError{Reason: fmt.Sprintf("activity %q: async=%t does not match the supplied action", d.Alias, d.Async)}
	}
	if _, err := d.cycleRateSpec(); err != nil {
		return err
	}
	return nil
}

func (d ActivityDef) cycleRateSpec() (core.RateSpec, error) {
	if d.CycleRate == "" {
		return core.RateSpec{}, &core.ConfigError{Reason: fmt.Sprintf("activity %q: missing required key \"cyclerate\"", d.Alias)}
	}
	return ParseRateSpec(d.CycleRate)
}

func (d ActivityDef) strideRateSpec() (core.RateSpec, error) { return ParseRateSpec(d.StrideRate) }
func (d ActivityDef) phaseRateSpec() (core.RateSpec, error)  { return ParseRateSpec(d.PhaseRate) }

// ParseRateSpec parses the "<ops/s>[,<strictness>[,report]]" rate string
// format shared by cyclerate/striderate/phaserate: ops/s is required,
// strictness defaults to 1.0 (isochronous) when omitted, and a trailing
// literal "report" turns on coordinated-omission delay reporting.
func ParseRateSpec(s string) (core.RateSpec, error) {
	parts := strings.Split(s, ",")
	spec := core.RateSpec{Strictness: 1.0}

	opsPerSec, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.RateSpec{}, &core.ConfigError{Reason: fmt.Sprintf("rate spec %q: invalid ops/s: %v", s, err)}
	}
	spec.OpsPerSec = opsPerSec

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		strictness, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return core.RateSpec{}, &core.ConfigError{Reason: fmt.Sprintf("rate spec %q: invalid strictness: %v", s, err)}
		}
		spec.Strictness = strictness
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) == "report" {
		spec.ReportCODelay = true
	}

	if err := spec.Validate(); err != nil {
		return core.RateSpec{}, &core.ConfigError{Reason: fmt.Sprintf("rate spec %q: %v", s, err)}
	}
	return spec, nil
}
