// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package guidepair

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// EngineOpts configures an Engine.
type EngineOpts struct {
	// Mode selects the completion policy.
	Mode CompletionMode
}

// Engine computes the completed CountTable from the hits of the R1 and R2
// files. An Engine is immutable and safe for concurrent use.
type Engine struct {
	opts EngineOpts
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts EngineOpts) *Engine {
	return &Engine{opts: opts}
}

// Mode returns the completion mode of the engine.
func (e *Engine) Mode() CompletionMode { return e.opts.Mode }

// Count tabulates every fragment present in both a and b. For each such
// fragment, each (x, y) with x in a[f] and y in b[f] is incremented once, so
// multi-hit fragments contribute one count per combination. a and b are not
// modified.
func (e *Engine) Count(a, b HitMapping) CountTable {
	table := CountTable{}
	// Probe the larger mapping with the keys of the smaller one.
	outer, inner, swapped := a, b, false
	if len(b) < len(a) {
		outer, inner, swapped = b, a, true
	}
	for name, outerHits := range outer {
		innerHits, ok := inner[name]
		if !ok {
			continue
		}
		hitsA, hitsB := outerHits, innerHits
		if swapped {
			hitsA, hitsB = innerHits, outerHits
		}
		for _, x := range hitsA {
			for _, y := range hitsB {
				table[PairKey{x, y}]++
			}
		}
	}
	return table
}

// Complete inserts a zero count for every key required by the completion
// mode that is missing from table. Existing entries, including keys the mode
// does not require, are left as is. Calling Complete again on its output is a
// no-op.
func (e *Engine) Complete(table CountTable, refNamesA, refNamesB []string) error {
	keys, err := e.opts.Mode.RequiredPairs(len(refNamesA), len(refNamesB))
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := table[k]; !ok {
			table[k] = 0
		}
	}
	return nil
}

// Aggregate counts and completes the table for the hits of the R1 file (a)
// and the R2 file (b). Panel sizes are checked before counting.
func (e *Engine) Aggregate(a, b *Hits) (CountTable, error) {
	if err := CheckPanels(e.opts.Mode, len(a.RefNames), len(b.RefNames)); err != nil {
		return nil, err
	}
	table := e.Count(a.Fragments, b.Fragments)
	if err := e.Complete(table, a.RefNames, b.RefNames); err != nil {
		return nil, err
	}
	return table, nil
}

// CheckTable verifies that every key of table names a reference in its name
// list. A failure means a hit escaped extraction without a valid reference.
func CheckTable(table CountTable, refNamesA, refNamesB []string) error {
	for k, n := range table {
		if k.A < 0 || int(k.A) >= len(refNamesA) {
			return errors.E(errors.Integrity,
				fmt.Sprintf("R1 reference id %d (count %d) has no name; the R1 file has %d references, do you still have an unmapped read in it?", k.A, n, len(refNamesA)))
		}
		if k.B < 0 || int(k.B) >= len(refNamesB) {
			return errors.E(errors.Integrity,
				fmt.Sprintf("R2 reference id %d (count %d) has no name; the R2 file has %d references, do you still have an unmapped read in it?", k.B, n, len(refNamesB)))
		}
		if n < 0 {
			return errors.E(errors.Integrity, fmt.Sprintf("negative count %d for %v", n, k))
		}
	}
	return nil
}
