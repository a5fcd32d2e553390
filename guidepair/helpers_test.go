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
	"os"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

func newHeader(t *testing.T, names ...string) *sam.Header {
	var refs []*sam.Reference
	for _, name := range names {
		ref, err := sam.NewReference(name, "", "", 100, nil, nil)
		require.NoError(t, err)
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	return header
}

// panel returns n reference names with the given prefix.
func panel(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return names
}

func newAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// newRecord creates a record for fragment name. A nil ref creates an
// unmapped record.
func newRecord(name string, ref *sam.Reference, flags sam.Flags, auxs ...sam.Aux) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = -1
	r.MatePos = -1
	r.Flags = flags
	r.Seq = sam.NewSeq([]byte("ACGT"))
	r.Qual = []byte{30, 30, 30, 30}
	if ref == nil {
		r.Flags |= sam.Unmapped
	} else {
		r.Pos = 0
		r.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 4)}
	}
	r.AuxFields = append(r.AuxFields, auxs...)
	return r
}

// nm returns a mapped record carrying an NM tag.
func nm(name string, ref *sam.Reference, mismatches int) *sam.Record {
	return newRecord(name, ref, 0, newAux("NM", mismatches))
}

func writeBAM(t *testing.T, path string, header *sam.Header, recs []*sam.Record) {
	out, err := os.Create(path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out, header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
}

// naiveCount is a direct rendition of the counting rule, for comparison.
func naiveCount(a, b HitMapping) CountTable {
	table := CountTable{}
	for name, hitsA := range a {
		hitsB, ok := b[name]
		if !ok {
			continue
		}
		for _, x := range hitsA {
			for _, y := range hitsB {
				table[PairKey{x, y}]++
			}
		}
	}
	return table
}

func copyTable(t CountTable) CountTable {
	c := make(CountTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
