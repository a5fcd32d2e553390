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
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/guidepair/encoding/bamprovider"
)

// Run reads the R1 and R2 alignment files named in opts, counts guide pairs,
// and writes the completed table to opts.OutputPath.
func Run(ctx context.Context, opts Opts) (err error) {
	if err = opts.Validate(); err != nil {
		return err
	}
	popts := bamprovider.ProviderOpts{Type: opts.Format}
	r1 := bamprovider.NewProvider(opts.R1Path, popts)
	r2 := bamprovider.NewProvider(opts.R2Path, popts)
	defer func() {
		for _, p := range []bamprovider.Provider{r1, r2} {
			if e := p.Close(); e != nil && err == nil {
				err = e
			}
		}
	}()
	return run(ctx, opts, r1, r2)
}

// run implements Run over already opened providers.
func run(ctx context.Context, opts Opts, r1, r2 bamprovider.Provider) error {
	paths := [2]string{opts.R1Path, opts.R2Path}
	providers := [2]bamprovider.Provider{r1, r2}

	// Headers are small; check the panels before reading any records.
	var nRefs [2]int
	for i, p := range providers {
		h, err := p.GetHeader()
		if err != nil {
			return errors.E(err, "reading header of", paths[i])
		}
		nRefs[i] = len(h.Refs())
	}
	if err := CheckPanels(opts.Mode, nRefs[0], nRefs[1]); err != nil {
		return err
	}
	log.Printf("returning reads with at most %d mismatches (tag %q)", opts.MaxMismatch, opts.MismatchTag)

	var hits [2]*Hits
	start := time.Now()
	err := traverse.Each(2, func(i int) error {
		eopts := opts.ExtractOpts()
		if size, err := bamprovider.FileSize(ctx, paths[i]); err == nil {
			eopts.CapacityHint = CapacityHint(size)
		}
		log.Debug.Printf("%s: capacity %d", paths[i], eopts.CapacityHint)
		var err error
		hits[i], err = Extract(ctx, paths[i], providers[i], eopts)
		return err
	})
	if err != nil {
		return err
	}
	total := Metrics{}
	for _, h := range hits {
		log.Printf("%s: %v", h.Path, h.Metrics)
		total.Add(h.Metrics)
	}
	log.Printf("done reading: %d fragments in R1, %d in R2, %d records total, elapsed time: %v",
		len(hits[0].Fragments), len(hits[1].Fragments), total.Records, time.Since(start))

	engine := NewEngine(EngineOpts{Mode: opts.Mode})
	start = time.Now()
	table, err := engine.Aggregate(hits[0], hits[1])
	if err != nil {
		return err
	}
	log.Printf("done making pairs with %v completion: %d rows, elapsed time: %v", engine.Mode(), len(table), time.Since(start))

	if err := WriteTSV(ctx, opts.OutputPath, opts.SampleName, table, hits[0].RefNames, hits[1].RefNames); err != nil {
		return err
	}
	if opts.MetricsPath != "" {
		if err := WriteMetrics(ctx, opts.MetricsPath, hits[0], hits[1]); err != nil {
			return err
		}
	}
	log.Printf("wrote %d rows to %s", len(table), opts.OutputPath)
	return nil
}
