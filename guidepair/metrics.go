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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// Metrics counts the records of one alignment file by filter outcome.
type Metrics struct {
	// Records is the number of records read.
	Records int64
	// Unmapped is the number of records dropped as unmapped.
	Unmapped int64
	// Secondary is the number of secondary alignments dropped.
	Secondary int64
	// OverMismatch is the number of records whose mismatch tag exceeded the
	// threshold.
	OverMismatch int64
	// BadTag is the number of records skipped because the mismatch tag was
	// missing or not an integer.
	BadTag int64
	// Passed is the number of records that passed the filter.
	Passed int64
	// Fragments is the number of distinct fragment names with a passing record.
	Fragments int64
}

// Add adds the counts in other to m.
func (m *Metrics) Add(other Metrics) {
	m.Records += other.Records
	m.Unmapped += other.Unmapped
	m.Secondary += other.Secondary
	m.OverMismatch += other.OverMismatch
	m.BadTag += other.BadTag
	m.Passed += other.Passed
	m.Fragments += other.Fragments
}

// String returns a one-line summary.
func (m Metrics) String() string {
	return fmt.Sprintf("records:%d unmapped:%d secondary:%d over_mismatch:%d bad_tag:%d passed:%d fragments:%d",
		m.Records, m.Unmapped, m.Secondary, m.OverMismatch, m.BadTag, m.Passed, m.Fragments)
}

const metricsHeader = "STREAM\tPATH\tRECORDS\tUNMAPPED\tSECONDARY\tOVER_MISMATCH\tBAD_TAG\tPASSED\tFRAGMENTS\tSHARED_FRAGMENTS"

// WriteMetrics writes the metrics of the R1 and R2 extractions to path as a
// TSV file with one row per stream.
func WriteMetrics(ctx context.Context, path string, r1, r2 *Hits) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create metrics file:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	shared := int64(sharedFragments(r1.Fragments, r2.Fragments))
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString(metricsHeader)
	if err = w.EndLine(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	for _, s := range []struct {
		name string
		hits *Hits
	}{{"R1", r1}, {"R2", r2}} {
		m := s.hits.Metrics
		w.WriteString(s.name)
		w.WriteString(s.hits.Path)
		for _, v := range []int64{m.Records, m.Unmapped, m.Secondary, m.OverMismatch, m.BadTag, m.Passed, m.Fragments, shared} {
			w.WriteInt64(v)
		}
		if err = w.EndLine(); err != nil {
			return errors.E(err, "error writing to metrics file:", path)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	return nil
}
