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

package bpm

import "math"

// InfDistance marks a verification that could not meet maxError anywhere
// in the text window.
const InfDistance = math.MaxInt32

// Result is one tile's (or the whole pattern's) best alignment against a
// text window: the edit distance found, and the text range it spans.
// EndOffset is exact (it is where the running score was minimal);
// BeginOffset is a band estimate -- the pattern could not have started
// earlier than EndOffset-(pattern length)-distance, which is precise
// enough to hand off to align/swg's scaffolded refinement.
type Result struct {
	Distance        int
	TextBeginOffset int
	TextEndOffset   int
}

const highBit = uint64(1) << (wordSize - 1)

// calculateBlock advances one 64-wide tile by one text column, following
// Myers' bit-vector recurrence extended with a horizontal carry in/out so
// multiple tiles can be chained into one wider pattern. hin/hout are in
// {-1, 0, 1}.
func calculateBlock(pv, mv, eq uint64, hin int) (pvOut, mvOut uint64, hout int) {
	xv := eq | mv
	if hin < 0 {
		eq |= 1
	}
	xh := (((eq & pv) + pv) ^ pv) | eq

	ph := mv | ^(xh | pv)
	mh := pv & xh

	if ph&highBit != 0 {
		hout = 1
	} else if mh&highBit != 0 {
		hout = -1
	}

	ph <<= 1
	mh <<= 1
	if hin < 0 {
		mh |= 1
	} else if hin > 0 {
		ph |= 1
	}

	pvOut = mh | ^(xv | ph)
	mvOut = ph & xv
	return pvOut, mvOut, hout
}

// Verify aligns the compiled pattern p against text (an encoded byte
// slice, values 0..6), searching for the text sub-range minimizing edit
// distance, and returns InfDistance in Distance if no alignment with
// distance <= maxError exists anywhere in the window.
//
// This is a semi-global (infix) alignment: the pattern must match in
// full, but the match may begin and end anywhere inside text, which is
// exactly the shape candidate-window verification needs (the window is
// padded with maxError slack on both sides by package candidates).
func Verify(p *Pattern, text []uint8, maxError int) Result {
	numTiles := len(p.tiles)
	pv := make([]uint64, numTiles)
	mv := make([]uint64, numTiles)
	for i := range pv {
		pv[i] = ^uint64(0)
	}

	// score[i] tracks the edit distance of the prefix ending at tile i's
	// top bit, right after processing the current column.
	score := make([]int, numTiles)
	for i, tl := range p.tiles {
		score[i] = tl.length
		if i > 0 {
			score[i] += score[i-1]
		}
	}

	best := Result{Distance: InfDistance}
	lastTile := numTiles - 1

	for j, tc := range text {
		hin := 0
		for b := 0; b < numTiles; b++ {
			eq := p.tiles[b].peq[tc]
			var hout int
			pv[b], mv[b], hout = calculateBlock(pv[b], mv[b], eq, hin)
			score[b] += hout
			hin = hout
		}
		// The final tile's running score is the edit distance of the whole
		// pattern against text[?:j+1] for the best possible start.
		distance := score[lastTile]
		if distance <= maxError && distance < best.Distance {
			best.Distance = distance
			best.TextEndOffset = j + 1
			beginOffset := best.TextEndOffset - p.length - distance
			if beginOffset < 0 {
				beginOffset = 0
			}
			best.TextBeginOffset = beginOffset
		}
	}
	return best
}
