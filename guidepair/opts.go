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
	"github.com/grailbio/guidepair/encoding/bamprovider"
)

// MissingTagPolicy tells Extract what to do with a record whose mismatch tag
// is absent or not an integer.
type MissingTagPolicy int

const (
	// Abort fails the extraction.
	Abort MissingTagPolicy = iota
	// Skip drops the record with a warning.
	Skip
)

// String returns the flag spelling of p.
func (p MissingTagPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("MissingTagPolicy(%d)", int(p))
}

// ParseMissingTagPolicy parses "abort" or "skip".
func ParseMissingTagPolicy(s string) (MissingTagPolicy, error) {
	switch s {
	case "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, errors.E(errors.Invalid, fmt.Sprintf("unknown missing tag policy %q, want abort or skip", s))
}

// ExtractOpts defines the record filter of Extract.
type ExtractOpts struct {
	// MismatchTag is the two character aux tag holding the mismatch count,
	// usually "NM". If empty, records are not filtered on a tag.
	MismatchTag string
	// MaxMismatch is the largest tag value a passing record may carry.
	MaxMismatch int
	// IncludeSecondary keeps secondary alignments. They are dropped by
	// default.
	IncludeSecondary bool
	// OnMissingTag handles records without an integer MismatchTag.
	OnMissingTag MissingTagPolicy
	// CapacityHint presizes the fragment map. 0 means no hint.
	CapacityHint int
}

// Opts configures Run. It is built once, from the command line, and not
// changed afterwards.
type Opts struct {
	// SampleName fills the Sample_Name column.
	SampleName string
	// R1Path and R2Path are the read-one and read-two alignment files.
	R1Path, R2Path string
	// Format forces the type of both input files. If Unknown, the type is
	// guessed from each path suffix.
	Format bamprovider.FileType
	// OutputPath is the TSV destination. A ".gz" suffix selects gzip, ".bgz"
	// selects BGZF.
	OutputPath string
	// MetricsPath, if nonempty, receives per-file extraction metrics.
	MetricsPath string
	// Mode selects the completion policy.
	Mode CompletionMode

	MismatchTag      string
	MaxMismatch      int
	IncludeSecondary bool
	OnMissingTag     MissingTagPolicy
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	OutputPath:   "counts.tsv",
	Mode:         Matrix,
	MismatchTag:  "NM",
	MaxMismatch:  2,
	OnMissingTag: Abort,
}

// Validate checks opts for errors that can be found before any file is read.
func (o *Opts) Validate() error {
	if o.SampleName == "" {
		return errors.E(errors.Invalid, "sample name must be set")
	}
	if o.R1Path == "" || o.R2Path == "" {
		return errors.E(errors.Invalid, "both R1 and R2 alignment paths must be set")
	}
	if o.OutputPath == "" {
		return errors.E(errors.Invalid, "output path must be set")
	}
	if o.MaxMismatch < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("mismatch threshold must be non-negative, got %d", o.MaxMismatch))
	}
	if o.MismatchTag != "" && len(o.MismatchTag) != 2 {
		return errors.E(errors.Invalid, fmt.Sprintf("mismatch tag must be two characters, got %q", o.MismatchTag))
	}
	switch o.Mode {
	case Matrix, Paired:
	default:
		return errors.E(errors.Invalid, fmt.Sprintf("unknown completion mode %v", o.Mode))
	}
	switch o.OnMissingTag {
	case Abort, Skip:
	default:
		return errors.E(errors.Invalid, fmt.Sprintf("unknown missing tag policy %v", o.OnMissingTag))
	}
	return nil
}

// ExtractOpts returns the filter options shared by the R1 and R2 files.
func (o *Opts) ExtractOpts() ExtractOpts {
	return ExtractOpts{
		MismatchTag:      o.MismatchTag,
		MaxMismatch:      o.MaxMismatch,
		IncludeSecondary: o.IncludeSecondary,
		OnMissingTag:     o.OnMissingTag,
	}
}
