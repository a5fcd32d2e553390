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

// CompletionMode selects which unobserved combinations Engine.Complete
// inserts with a zero count.
type CompletionMode int

const (
	// Matrix requires every (a, b) with a < len(R1 refs), b < len(R2 refs).
	Matrix CompletionMode = iota
	// Paired requires (i, i) for every i of two equal length panels. The
	// panels are assumed to list the same guides in the same order.
	Paired
)

// String returns the flag spelling of m.
func (m CompletionMode) String() string {
	switch m {
	case Matrix:
		return "matrix"
	case Paired:
		return "paired"
	}
	return fmt.Sprintf("CompletionMode(%d)", int(m))
}

// ParseCompletionMode parses "matrix" or "paired".
func ParseCompletionMode(s string) (CompletionMode, error) {
	switch s {
	case "matrix":
		return Matrix, nil
	case "paired", "pair":
		return Paired, nil
	}
	return Matrix, errors.E(errors.Invalid, fmt.Sprintf("unknown completion mode %q", s))
}

// CheckPanels verifies that panels of nA and nB references can be completed
// in mode m.
func CheckPanels(m CompletionMode, nA, nB int) error {
	switch m {
	case Matrix:
		return nil
	case Paired:
		if nA != nB {
			return errors.E(errors.Precondition,
				fmt.Sprintf("paired mode requested but the number of references does not match: R1 has %d, R2 has %d", nA, nB))
		}
		return nil
	}
	return errors.E(errors.Invalid, fmt.Sprintf("unknown completion mode %v", m))
}

// RequiredPairs lists the keys that a completed table must contain, in
// ascending (A, B) order.
func (m CompletionMode) RequiredPairs(nA, nB int) ([]PairKey, error) {
	if err := CheckPanels(m, nA, nB); err != nil {
		return nil, err
	}
	var keys []PairKey
	switch m {
	case Matrix:
		keys = make([]PairKey, 0, nA*nB)
		for a := 0; a < nA; a++ {
			for b := 0; b < nB; b++ {
				keys = append(keys, PairKey{RefID(a), RefID(b)})
			}
		}
	case Paired:
		keys = make([]PairKey, 0, nA)
		for i := 0; i < nA; i++ {
			keys = append(keys, PairKey{RefID(i), RefID(i)})
		}
	}
	return keys, nil
}
