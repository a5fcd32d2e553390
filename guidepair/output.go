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
	"context"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Header lists the TSV column names.
var Header = []string{"Sample_Name", "R1_hit", "R2_hit", "count"}

// SortedKeys returns the keys of table in ascending (A, B) order.
func SortedKeys(table CountTable) []PairKey {
	keys := make([]PairKey, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// EncodeTSV writes the header and one row per entry of table, sorted by
// (A, B). Reference ids are resolved against refNamesA and refNamesB; the
// table is checked before anything is written, so an id without a name
// leaves w untouched.
func EncodeTSV(w io.Writer, sampleName string, table CountTable, refNamesA, refNamesB []string) error {
	if err := CheckTable(table, refNamesA, refNamesB); err != nil {
		return err
	}
	tw := tsv.NewWriter(w)
	for _, col := range Header {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, k := range SortedKeys(table) {
		tw.WriteString(sampleName)
		tw.WriteString(refNamesA[k.A])
		tw.WriteString(refNamesB[k.B])
		tw.WriteInt64(table[k])
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Compression is the encoding applied to the TSV output.
type Compression int

const (
	// NoCompression writes plain text.
	NoCompression Compression = iota
	// Gzip writes a single gzip stream.
	Gzip
	// BGZF writes blocked gzip, readable by gzip and indexable by tabix.
	BGZF
)

// CompressionForPath picks the compression from the path suffix.
func CompressionForPath(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".bgz"):
		return BGZF
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	}
	return NoCompression
}

// WriteTSV writes the table to path, compressed according to the suffix.
// Nothing is created if the table fails CheckTable.
func WriteTSV(ctx context.Context, path, sampleName string, table CountTable, refNamesA, refNamesB []string) (err error) {
	if err = CheckTable(table, refNamesA, refNamesB); err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create output file:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	var (
		w       io.Writer = out.Writer(ctx)
		closeFn func() error
	)
	switch CompressionForPath(path) {
	case Gzip:
		gz := gzip.NewWriter(w)
		w, closeFn = gz, gz.Close
	case BGZF:
		bw := bgzf.NewWriter(w, 1)
		w, closeFn = bw, bw.Close
	}
	once := errors.Once{}
	once.Set(EncodeTSV(w, sampleName, table, refNamesA, refNamesB))
	if closeFn != nil {
		once.Set(closeFn())
	}
	if err = once.Err(); err != nil {
		return errors.E(err, "error writing to output file:", path)
	}
	return nil
}
