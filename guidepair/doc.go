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

/*
Package guidepair builds a co-occurrence count matrix between two reference
panels from a pair of alignment files (read one and read two) of the same
sequenced fragments. It is used for dual-target assays such as paired-guide
screens.

Processing is a single pass:

  1. Extract reads each alignment file and keeps, per fragment name, the set
     of references the fragment's passing alignments hit (a HitMapping).
  2. Engine.Count cross-joins the two hit sets of every fragment present in
     both files, one increment per (R1 reference, R2 reference) combination.
     A fragment with two R1 hits and three R2 hits therefore adds six counts.
  3. Engine.Complete inserts the combinations that were never observed with a
     zero count: the full |R1| x |R2| matrix in Matrix mode, or the diagonal
     (i, i) of two equal length panels in Paired mode.
  4. WriteTSV emits one "Sample_Name R1_hit R2_hit count" row per combination.

Run wires the steps together.
*/
package guidepair
