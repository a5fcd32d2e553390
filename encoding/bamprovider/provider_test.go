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
package bamprovider_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/guidepair/encoding/bamprovider"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSAM = "@HD\tVN:1.0\tSO:unsorted\n" +
	"@SQ\tSN:guideA\tLN:20\n" +
	"@SQ\tSN:guideB\tLN:20\n" +
	"read1\t0\tguideA\t1\t60\t4M\t*\t0\t0\tACGT\tIIII\tNM:i:0\n" +
	"read2\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\tIIII\n" +
	"read3\t0\tguideB\t3\t60\t4M\t*\t0\t0\tACGT\tIIII\tNM:i:1\n"

func newTestHeader(t *testing.T, names ...string) *sam.Header {
	var refs []*sam.Reference
	for _, name := range names {
		ref, err := sam.NewReference(name, "", "", 20, nil, nil)
		require.NoError(t, err)
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	return header
}

func newTestRecord(t *testing.T, name string, ref *sam.Reference) *sam.Record {
	rec, err := sam.NewRecord(name, ref, nil, 0, -1, 0, 60,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)},
		[]byte("ACGT"), []byte{30, 31, 32, 33}, nil)
	require.NoError(t, err)
	return rec
}

func writeTestBAM(t *testing.T, path string, header *sam.Header, recs []*sam.Record) {
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

func readNames(t *testing.T, p bamprovider.Provider) []string {
	iter := p.NewIterator()
	var names []string
	for iter.Scan() {
		names = append(names, iter.Record().Name)
	}
	require.NoError(t, iter.Err())
	require.NoError(t, iter.Close())
	return names
}

func TestGuessFileType(t *testing.T) {
	assert.Equal(t, bamprovider.BAM, bamprovider.GuessFileType("foo/r1.bam"))
	assert.Equal(t, bamprovider.SAM, bamprovider.GuessFileType("s3://bucket/r1.sam"))
	assert.Equal(t, bamprovider.Unknown, bamprovider.GuessFileType("r1.cram"))
	assert.Equal(t, bamprovider.SAM, bamprovider.ParseFileType("SAM"))
	assert.Equal(t, bamprovider.Unknown, bamprovider.ParseFileType("pam"))
	assert.Equal(t, "bam", bamprovider.BAM.String())
}

func TestBAM(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	header := newTestHeader(t, "guideA", "guideB", "guideC")
	refs := header.Refs()
	// Aligner output is not coordinate sorted.
	recs := []*sam.Record{
		newTestRecord(t, "read1", refs[2]),
		newTestRecord(t, "read2", refs[0]),
		newTestRecord(t, "read3", refs[1]),
	}
	path := filepath.Join(tmpDir, "r1.bam")
	writeTestBAM(t, path, header, recs)

	p := bamprovider.NewProvider(path)
	h, err := p.GetHeader()
	require.NoError(t, err)
	assert.Equal(t, []string{"guideA", "guideB", "guideC"}, bamprovider.RefNames(h))
	// Iterate twice to check that iterators are independent.
	for i := 0; i < 2; i++ {
		assert.Equal(t, []string{"read1", "read2", "read3"}, readNames(t, p))
	}
	require.NoError(t, p.Close())

	size, err := bamprovider.FileSize(vcontext.Background(), path)
	require.NoError(t, err)
	assert.True(t, size > 0)
}

func TestSAM(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmpDir, "r1.sam")
	require.NoError(t, ioutil.WriteFile(path, []byte(testSAM), 0644))

	p := bamprovider.NewProvider(path)
	h, err := p.GetHeader()
	require.NoError(t, err)
	assert.Equal(t, []string{"guideA", "guideB"}, bamprovider.RefNames(h))

	iter := p.NewIterator()
	var got []string
	for iter.Scan() {
		r := iter.Record()
		got = append(got, r.Name)
		if r.Name == "read3" {
			aux := r.AuxFields.Get(sam.NewTag("NM"))
			require.NotNil(t, aux)
			assert.EqualValues(t, 1, aux.Value())
		}
	}
	require.NoError(t, iter.Close())
	assert.Equal(t, []string{"read1", "read2", "read3"}, got)
	require.NoError(t, p.Close())
}

func TestForcedType(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmpDir, "r1.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte(testSAM), 0644))

	p := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Type: bamprovider.SAM})
	assert.Equal(t, []string{"read1", "read2", "read3"}, readNames(t, p))
	require.NoError(t, p.Close())
}

func TestError(t *testing.T) {
	for _, path := range []string{"nonexistent.bam", "nonexistent.sam"} {
		p := bamprovider.NewProvider(path)
		_, err := p.GetHeader()
		require.Error(t, err)
		require.Regexp(t, "no such file", err.Error())

		iter := p.NewIterator()
		assert.False(t, iter.Scan())
		require.Regexp(t, "no such file", iter.Close().Error())
		require.Regexp(t, "no such file", p.Close().Error())
	}
}

func TestCorruptBAM(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmpDir, "corrupt.bam")
	require.NoError(t, ioutil.WriteFile(path, []byte("this is not a bam file"), 0644))

	p := bamprovider.NewProvider(path)
	_, err := p.GetHeader()
	require.Error(t, err)
	require.Error(t, p.Close())
}

func TestFakeProvider(t *testing.T) {
	header := newTestHeader(t, "guideA")
	rec := newTestRecord(t, "read1", header.Refs()[0])
	p := bamprovider.NewFakeProvider(header, []*sam.Record{rec})
	iter := p.NewIterator()
	require.True(t, iter.Scan())
	got := iter.Record()
	got.Name = "changed"
	assert.Equal(t, "read1", rec.Name)
	assert.False(t, iter.Scan())
	require.NoError(t, iter.Close())
	require.NoError(t, p.Close())
}
