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
package bamprovider

import (
	"context"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Type forces the file type. If Unknown, the type is guessed from the
	// path.
	Type FileType

	// Readers is the number of concurrent bgzf decompressors used by the
	// BAM reader. Values <= 0 mean 1. Ignored for SAM.
	Readers int
}

// Provider allows reading a BAM or SAM file. A Provider is thread
// compatible; distinct Providers may be used from distinct goroutines.
type Provider interface {
	// GetHeader returns the header of the file. The callee must not modify the
	// returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over all the records in the file, in
	// the order they are stored.
	//
	// REQUIRES: Close has not been called.
	NewIterator() Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of the file, Scan() returns false. If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred. An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// FileType represents the type of an alignment file.
type FileType int

const (
	// Unknown is a sentinel.
	Unknown FileType = iota
	// BAM file
	BAM
	// SAM file
	SAM
)

// String returns the lowercase name of the file type.
func (t FileType) String() string {
	switch t {
	case BAM:
		return "bam"
	case SAM:
		return "sam"
	}
	return "unknown"
}

// ParseFileType parses the file type string. "bam" returns bamprovider.BAM, for
// example. On error, it returns Unknown.
func ParseFileType(name string) FileType {
	switch strings.ToLower(name) {
	case "bam":
		return BAM
	case "sam":
		return SAM
	default:
		return Unknown
	}
}

// GuessFileType returns the file type from the pathname. Returns Unknown if
// the suffix is not recognized.
func GuessFileType(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".bam"):
		return BAM
	case strings.HasSuffix(path, ".sam"):
		return SAM
	}
	vlog.VI(1).Infof("%v: could not detect file type.", path)
	return Unknown
}

func mergeOpts(optList []ProviderOpts) ProviderOpts {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Type != Unknown {
			opts.Type = o.Type
		}
		if o.Readers > 0 {
			opts.Readers = o.Readers
		}
	}
	if opts.Readers <= 0 {
		opts.Readers = 1
	}
	return opts
}

// NewProvider creates a Provider object that can handle a BAM or SAM file at
// "path". Unless opts force a type, the type is detected from the path, and
// files with an unrecognized suffix are read as BAM.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := mergeOpts(optList)
	typ := opts.Type
	if typ == Unknown {
		typ = GuessFileType(path)
	}
	switch typ {
	case BAM, Unknown:
		return &BAMProvider{Path: path, Readers: opts.Readers}
	case SAM:
		return &SAMProvider{Path: path}
	}
	panic("shouldn't reach here")
}

// FileSize returns the size of the file at path, in bytes.
func FileSize(ctx context.Context, path string) (int64, error) {
	info, err := file.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
