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

// RefID is an index into the reference name list of one alignment file. IDs
// of the R1 and R2 files index different lists.
type RefID int

// HitSet lists the distinct references hit by one fragment in one file.
type HitSet []RefID

// Add returns s with id appended, unless s already contains it.
func (s HitSet) Add(id RefID) HitSet {
	for _, v := range s {
		if v == id {
			return s
		}
	}
	return append(s, id)
}

// Contains checks if s contains id.
func (s HitSet) Contains(id RefID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// HitMapping maps a fragment name to its HitSet. A fragment without passing
// alignments is absent, never mapped to an empty set. It is read-only once
// extraction finishes.
type HitMapping map[string]HitSet

// add records a hit of fragment name on id. BAM decoders hand out names that
// alias the record buffer, so a new key is copied before it is stored.
func (m HitMapping) add(name string, id RefID) {
	hs, ok := m[name]
	if !ok {
		name = string([]byte(name))
	}
	m[name] = hs.Add(id)
}

// PairKey is an (R1 reference, R2 reference) combination. (a,b) and (b,a)
// are distinct keys.
type PairKey struct {
	A, B RefID
}

// CountTable maps a PairKey to the number of times it was observed.
type CountTable map[PairKey]int64

// Hits is the result of extracting one alignment file.
type Hits struct {
	// Path is the file the hits were read from.
	Path string
	// Fragments maps fragment names to passing references.
	Fragments HitMapping
	// RefNames is the ordered reference name list of the file header;
	// RefNames[id] names RefID id.
	RefNames []string
	// Metrics counts records by filter outcome.
	Metrics Metrics
}

// sharedFragments counts the fragment names present in both mappings.
func sharedFragments(a, b HitMapping) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for name := range a {
		if _, ok := b[name]; ok {
			n++
		}
	}
	return n
}
