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
// Package bamprovider provides utilities for scanning a BAM or SAM file from
// start to end.
//
// The Provider is an interface for reading alignment records together with
// the file header. Unlike a coordinate-sharded reader, providers here read
// files in their stored order, so name-sorted or unsorted aligner output is
// accepted and no index is required.
package bamprovider
