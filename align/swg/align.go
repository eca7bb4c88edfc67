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

package swg

import "github.com/grailbio/gemgo/matches"

const negInf = int32(-1 << 30)

// state identifies which of the three Gotoh matrices a cell's traceback
// pointer came from.
type state uint8

const (
	stateM state = iota
	stateIns
	stateDel
	stateNone
)

// Align runs the affine-gap Smith-Waterman-Gotoh recurrence of query
// (the read) against text (a reference window), honoring opts.Mode's free
// ends and opts.MaxBandwidth, and writes the resulting alignment into
// cigar (which the caller should Reset first). It returns the raw SWG
// score and whether any alignment was found at all (false only when the
// band excludes every path, e.g. bandwidth too narrow for the length
// difference between query and text).
func Align(query, text []uint8, opts Options, cigar *matches.CIGAR) (score int32, ok bool) {
	m, n := len(query), len(text)
	p := opts.Penalties

	inBand := func(i, j int) bool {
		if opts.MaxBandwidth <= 0 {
			return true
		}
		d := i - j
		if d < 0 {
			d = -d
		}
		return d <= opts.MaxBandwidth
	}

	M := make([][]int32, m+1)
	Ins := make([][]int32, m+1)
	Del := make([][]int32, m+1)
	tbM := make([][]state, m+1)
	tbIns := make([][]state, m+1)
	tbDel := make([][]state, m+1)
	for i := range M {
		M[i] = make([]int32, n+1)
		Ins[i] = make([]int32, n+1)
		Del[i] = make([]int32, n+1)
		tbM[i] = make([]state, n+1)
		tbIns[i] = make([]state, n+1)
		tbDel[i] = make([]state, n+1)
		for j := range M[i] {
			M[i][j], Ins[i][j], Del[i][j] = negInf, negInf, negInf
		}
	}

	freeBegin := opts.Mode == ModeFreeBegin || opts.Mode == ModeFreeBoth
	freeEnd := opts.Mode == ModeFreeEnd || opts.Mode == ModeFreeBoth

	M[0][0] = 0
	for j := 1; j <= n; j++ {
		if freeBegin {
			M[0][j] = 0
			continue
		}
		fresh := p.GapOpen + int32(j)*p.GapExtend
		ext := negInf
		if Del[0][j-1] != negInf {
			ext = Del[0][j-1] + p.GapExtend
		}
		if ext >= fresh {
			Del[0][j], tbDel[0][j] = ext, stateDel
		} else {
			Del[0][j], tbDel[0][j] = fresh, stateM
		}
	}
	for i := 1; i <= m; i++ {
		fresh := p.GapOpen + int32(i)*p.GapExtend
		ext := negInf
		if Ins[i-1][0] != negInf {
			ext = Ins[i-1][0] + p.GapExtend
		}
		if ext >= fresh {
			Ins[i][0], tbIns[i][0] = ext, stateIns
		} else {
			Ins[i][0], tbIns[i][0] = fresh, stateM
		}
	}

	matchScore := func(a, b uint8) int32 {
		if a == b {
			return p.Match
		}
		return p.Mismatch
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if !inBand(i, j) {
				continue
			}
			// Ins[i][j]: query consumed, text not -- insertion relative to reference.
			openIns := M[i-1][j]
			if openIns != negInf {
				openIns += p.GapOpen + p.GapExtend
			}
			extIns := Ins[i-1][j]
			if extIns != negInf {
				extIns += p.GapExtend
			}
			if opts.LeftGapAlignment {
				if extIns >= openIns {
					Ins[i][j], tbIns[i][j] = extIns, stateIns
				} else {
					Ins[i][j], tbIns[i][j] = openIns, stateM
				}
			} else {
				if openIns >= extIns {
					Ins[i][j], tbIns[i][j] = openIns, stateM
				} else {
					Ins[i][j], tbIns[i][j] = extIns, stateIns
				}
			}

			// Del[i][j]: text consumed, query not -- deletion relative to reference.
			openDel := M[i][j-1]
			if openDel != negInf {
				openDel += p.GapOpen + p.GapExtend
			}
			extDel := Del[i][j-1]
			if extDel != negInf {
				extDel += p.GapExtend
			}
			if opts.LeftGapAlignment {
				if openDel >= extDel {
					Del[i][j], tbDel[i][j] = openDel, stateM
				} else {
					Del[i][j], tbDel[i][j] = extDel, stateDel
				}
			} else {
				if extDel >= openDel {
					Del[i][j], tbDel[i][j] = extDel, stateDel
				} else {
					Del[i][j], tbDel[i][j] = openDel, stateM
				}
			}

			// M[i][j]: aligned column (match or mismatch).
			diag := matchScore(query[i-1], text[j-1])
			best, bestState := negInf, stateNone
			if M[i-1][j-1] != negInf {
				if v := M[i-1][j-1] + diag; v > best {
					best, bestState = v, stateM
				}
			}
			if Ins[i-1][j-1] != negInf {
				if v := Ins[i-1][j-1] + diag; v > best {
					best, bestState = v, stateIns
				}
			}
			if Del[i-1][j-1] != negInf {
				if v := Del[i-1][j-1] + diag; v > best {
					best, bestState = v, stateDel
				}
			}
			M[i][j], tbM[i][j] = best, bestState
		}
	}

	// Pick the best ending cell.
	endJ := n
	endState := stateM
	best := M[m][n]
	if Ins[m][n] > best {
		best, endState = Ins[m][n], stateIns
	}
	if Del[m][n] > best {
		best, endState = Del[m][n], stateDel
	}
	if freeEnd {
		for j := 0; j <= n; j++ {
			if M[m][j] > best {
				best, endJ, endState = M[m][j], j, stateM
			}
			if Ins[m][j] > best {
				best, endJ, endState = Ins[m][j], j, stateIns
			}
			if Del[m][j] > best {
				best, endJ, endState = Del[m][j], j, stateDel
			}
		}
	}
	if best == negInf {
		return 0, false
	}

	traceback(query, text, m, endJ, endState, M, Ins, Del, tbM, tbIns, tbDel, freeBegin, cigar)
	return best, true
}

func traceback(query, text []uint8, i, j int, st state,
	M, Ins, Del [][]int32, tbM, tbIns, tbDel [][]state,
	freeBegin bool, cigar *matches.CIGAR) {
	for i > 0 || (j > 0 && !freeBegin) {
		switch st {
		case stateM:
			if query[i-1] == text[j-1] {
				cigar.Add(matches.OpMatch)
			} else {
				cigar.Add(matches.OpMismatch)
			}
			st = tbM[i][j]
			i--
			j--
		case stateIns:
			cigar.Add(matches.OpInsert)
			st = tbIns[i][j]
			i--
		case stateDel:
			cigar.Add(matches.OpDelete)
			st = tbDel[i][j]
			j--
		default:
			return
		}
	}
}
