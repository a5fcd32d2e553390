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
	"github.com/grailbio/base/log"
	"github.com/grailbio/guidepair/encoding/bamprovider"
	"github.com/grailbio/hts/sam"
)

const (
	// The context is polled once per this many records.
	ctxCheckInterval = 1 << 16
	// Only the first few skipped records are logged individually.
	maxTagWarnings = 10
	// Rough BAM bytes per fragment, for presizing the fragment map.
	bamBytesPerFragment = 20
	maxCapacityHint     = 1 << 20
)

// CapacityHint estimates the number of fragments in an alignment file of the
// given size.
func CapacityHint(fileSize int64) int {
	n := fileSize / bamBytesPerFragment
	if n > maxCapacityHint {
		n = maxCapacityHint
	}
	if n < 0 {
		n = 0
	}
	return int(n)
}

// auxInt returns the value of an integer typed aux field.
func auxInt(aux sam.Aux) (int64, bool) {
	switch aux.Type() {
	case 'c', 'C', 's', 'S', 'i', 'I':
	default:
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int8:
		return int64(v), true
	case uint8:
		return int64(v), true
	case int16:
		return int64(v), true
	case uint16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

// extractor holds the state of one Extract call.
type extractor struct {
	path     string
	opts     ExtractOpts
	tag      sam.Tag
	useTag   bool
	nRefs    int
	metrics  Metrics
	warnings int
}

// tagError is returned for a record whose mismatch tag is missing or is not
// an integer.
func (x *extractor) tagError(r *sam.Record, aux sam.Aux) error {
	if aux == nil {
		return errors.E(errors.Invalid,
			fmt.Sprintf("%s: record %s failed to find %s tag", x.path, r.Name, x.opts.MismatchTag))
	}
	return errors.E(errors.Invalid,
		fmt.Sprintf("%s: record %s expected integer for tag %s, got: %v", x.path, r.Name, x.opts.MismatchTag, aux))
}

// accept applies the filter to r. It returns an error only for malformed
// records that the policy does not allow to skip.
func (x *extractor) accept(r *sam.Record) (bool, error) {
	if r.Flags&sam.Unmapped != 0 {
		x.metrics.Unmapped++
		return false, nil
	}
	if r.Flags&sam.Secondary != 0 && !x.opts.IncludeSecondary {
		x.metrics.Secondary++
		return false, nil
	}
	if r.Ref == nil || r.Ref.ID() < 0 || r.Ref.ID() >= x.nRefs {
		return false, errors.E(errors.Invalid,
			fmt.Sprintf("%s: record %s is mapped but has no valid reference", x.path, r.Name))
	}
	if !x.useTag {
		return true, nil
	}
	aux := r.AuxFields.Get(x.tag)
	v, ok := int64(0), false
	if aux != nil {
		v, ok = auxInt(aux)
	}
	if !ok {
		err := x.tagError(r, aux)
		if x.opts.OnMissingTag == Abort {
			return false, err
		}
		x.metrics.BadTag++
		if x.warnings < maxTagWarnings {
			log.Error.Printf("skipping record: %v", err)
		} else if x.warnings == maxTagWarnings {
			log.Error.Printf("%s: further records with a bad %s tag are skipped silently", x.path, x.opts.MismatchTag)
		}
		x.warnings++
		return false, nil
	}
	if v > int64(x.opts.MaxMismatch) {
		x.metrics.OverMismatch++
		return false, nil
	}
	return true, nil
}

// Extract reads every record from provider and returns, for each fragment
// with at least one passing record, the set of references hit. path is used
// in messages only. The provider is not closed.
func Extract(ctx context.Context, path string, provider bamprovider.Provider, opts ExtractOpts) (*Hits, error) {
	header, err := provider.GetHeader()
	if err != nil {
		return nil, errors.E(err, "reading header of", path)
	}
	x := extractor{
		path:   path,
		opts:   opts,
		useTag: opts.MismatchTag != "",
		nRefs:  len(header.Refs()),
	}
	if x.useTag {
		if len(opts.MismatchTag) != 2 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("mismatch tag must be two characters, got %q", opts.MismatchTag))
		}
		x.tag = sam.NewTag(opts.MismatchTag)
	}
	fragments := make(HitMapping, opts.CapacityHint)

	iter := provider.NewIterator()
	for iter.Scan() {
		r := iter.Record()
		x.metrics.Records++
		if x.metrics.Records%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				iter.Close() // nolint: errcheck
				kind := errors.Canceled
				if err == context.DeadlineExceeded {
					kind = errors.Timeout
				}
				return nil, errors.E(kind, err, "reading", path)
			}
		}
		ok, err := x.accept(r)
		if err != nil {
			iter.Close() // nolint: errcheck
			return nil, err
		}
		if ok {
			x.metrics.Passed++
			fragments.add(r.Name, RefID(r.Ref.ID()))
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.E(err, "reading", path)
	}
	x.metrics.Fragments = int64(len(fragments))
	return &Hits{
		Path:      path,
		Fragments: fragments,
		RefNames:  bamprovider.RefNames(header),
		Metrics:   x.metrics,
	}, nil
}
