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
package main

/*
bio-guidepair counts, for a pair of R1/R2 alignment files of the same
fragments, how often each combination of R1 and R2 references was observed,
and writes the completed count table as TSV.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/guidepair/encoding/bamprovider"
	"github.com/grailbio/guidepair/guidepair"
)

var (
	outputPath       = flag.String("output", guidepair.DefaultOpts.OutputPath, "Output TSV path. A .gz suffix writes gzip, .bgz writes BGZF")
	pair             = flag.Bool("pair", false, "Paired mode: only fill in (i,i) combinations of two equal-length reference lists, instead of the full R1 x R2 matrix")
	maxMismatch      = flag.Int("max-mismatch", guidepair.DefaultOpts.MaxMismatch, "Records whose mismatch tag exceeds this value are skipped")
	tag              = flag.String("tag", guidepair.DefaultOpts.MismatchTag, "Aux tag holding the mismatch count; empty disables the mismatch filter")
	includeSecondary = flag.Bool("include-secondary", guidepair.DefaultOpts.IncludeSecondary, "Count secondary alignments")
	onMissingTag     = flag.String("on-missing-tag", guidepair.DefaultOpts.OnMissingTag.String(), "What to do with a record whose mismatch tag is missing or not an integer: 'abort' or 'skip'")
	metricsPath      = flag.String("metrics", "", "Optional path for per-file extraction metrics TSV")
	format           = flag.String("format", "", "Input format of both files, 'bam' or 'sam'. If empty, guessed from the file suffix")
)

func bioGuidepairUsage() {
	fmt.Printf("Usage: %s [OPTIONS] sample_name r1.bam r2.bam\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioGuidepairUsage
	shutdown := grail.Init()
	defer shutdown()

	args := flag.Args()
	if len(args) != 3 {
		log.Fatalf("Expected sample_name, R1 and R2 alignment paths; please check flag syntax: '%s'", strings.Join(args, " "))
	}
	policy, err := guidepair.ParseMissingTagPolicy(*onMissingTag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := guidepair.DefaultOpts
	if *format != "" {
		if opts.Format = bamprovider.ParseFileType(*format); opts.Format == bamprovider.Unknown {
			log.Fatalf("unknown -format %q, want bam or sam", *format)
		}
	}
	opts.SampleName = args[0]
	opts.R1Path = args[1]
	opts.R2Path = args[2]
	opts.OutputPath = *outputPath
	opts.MetricsPath = *metricsPath
	opts.MismatchTag = *tag
	opts.MaxMismatch = *maxMismatch
	opts.IncludeSecondary = *includeSecondary
	opts.OnMissingTag = policy
	if *pair {
		opts.Mode = guidepair.Paired
	}

	ctx := vcontext.Background()
	if err := guidepair.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
