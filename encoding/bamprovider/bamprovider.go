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
	"io"
	"sync"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM files. The path may name any file
// supported by github.com/grailbio/base/file. No index is needed; records
// are read in file order.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Readers is the number of concurrent bgzf decompressors. Values <= 0
	// mean 1.
	Readers int
	err     errorreporter.T

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

// recordReader is implemented by both *bam.Reader and *sam.Reader.
type recordReader interface {
	Read() (*sam.Record, error)
}

// fileIterator reads every record of one open file. It is shared by the BAM
// and SAM providers.
type fileIterator struct {
	in     file.File
	reader recordReader
	// closeReader, if non-nil, releases decoder resources before "in" is
	// closed.
	closeReader func() error
	// done is called once from Close.
	done func(*fileIterator)

	active bool
	err    error
	next   *sam.Record
}

func (b *BAMProvider) readers() int {
	if b.Readers <= 0 {
		return 1
	}
	return b.Readers
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	reader, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer reader.Close(ctx) // nolint: errcheck
	bamReader, err := bam.NewReader(reader.Reader(ctx), 1)
	if err != nil {
		err = errors.Wrapf(err, "%v: failed to read BAM header", b.Path)
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close() // nolint: errcheck
	b.header = bamReader.Header()
	vlog.VI(1).Infof("%v: read header with %d references", b.Path, len(b.header.Refs()))
	return b.header, nil
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	b.mu.Lock()
	b.nActive++
	b.mu.Unlock()

	iter := &fileIterator{active: true, done: b.freeIterator}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	bamReader, err := bam.NewReader(iter.in.Reader(ctx), b.readers())
	if err != nil {
		iter.err = errors.Wrapf(err, "%v: failed to open BAM reader", b.Path)
		return iter
	}
	iter.reader = bamReader
	iter.closeReader = bamReader.Close
	return iter
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b.Path)
	}
	return b.err.Err()
}

func (b *BAMProvider) freeIterator(i *fileIterator) {
	b.err.Set(i.Err())
	b.mu.Lock()
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b.Path)
	}
	b.mu.Unlock()
}

// Scan implements the Iterator interface.
func (i *fileIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	i.next, i.err = i.reader.Read()
	return i.err == nil
}

// Record implements the Iterator interface.
func (i *fileIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *fileIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *fileIterator) Close() error {
	if !i.active {
		vlog.Fatal("Closing inactive iterator")
	}
	i.active = false
	if i.closeReader != nil {
		if err := i.closeReader(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.closeReader = nil
	}
	if i.in != nil {
		if err := i.in.Close(context.Background()); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	i.done(i)
	return err
}
