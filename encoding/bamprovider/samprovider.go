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
	"sync"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// SAMProvider implements Provider for SAM text files.
type SAMProvider struct {
	// Path of the *.sam file. Must be nonempty.
	Path string
	err  errorreporter.T

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

// GetHeader implements the Provider interface.
func (s *SAMProvider) GetHeader() (*sam.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header != nil {
		return s.header, nil
	}
	ctx := vcontext.Background()
	in, err := file.Open(ctx, s.Path)
	if err != nil {
		s.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	samReader, err := sam.NewReader(in.Reader(ctx))
	if err != nil {
		err = errors.Wrapf(err, "%v: failed to read SAM header", s.Path)
		s.err.Set(err)
		return nil, err
	}
	s.header = samReader.Header()
	return s.header, nil
}

// NewIterator implements the Provider interface.
func (s *SAMProvider) NewIterator() Iterator {
	s.mu.Lock()
	s.nActive++
	s.mu.Unlock()

	iter := &fileIterator{active: true, done: s.freeIterator}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, s.Path); iter.err != nil {
		return iter
	}
	samReader, err := sam.NewReader(iter.in.Reader(ctx))
	if err != nil {
		iter.err = errors.Wrapf(err, "%v: failed to open SAM reader", s.Path)
		return iter
	}
	iter.reader = samReader
	return iter
}

// Close implements the Provider interface.
func (s *SAMProvider) Close() error {
	if s.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", s.nActive, s.Path)
	}
	return s.err.Err()
}

func (s *SAMProvider) freeIterator(i *fileIterator) {
	s.err.Set(i.Err())
	s.mu.Lock()
	s.nActive--
	s.mu.Unlock()
}
