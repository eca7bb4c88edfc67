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

// Package paired implements the paired-end search controller: a small
// state machine that decides, for a pair of reads, whether to search both
// ends independently, shortcut the second end's search once the first
// end anchors tightly, or fall back to a recovery search when no
// consistent pair is found.
package paired

// State tags one step of the paired-end controller.
type State int

const (
	StateBegin State = iota
	StateSearchE1
	StateExtendE1Shortcut
	StateSearchE2
	StateFindPairs
	StateRecovery
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateBegin:
		return "begin"
	case StateSearchE1:
		return "searchE1"
	case StateExtendE1Shortcut:
		return "extendE1Shortcut"
	case StateSearchE2:
		return "searchE2"
	case StateFindPairs:
		return "findPairs"
	case StateRecovery:
		return "recovery"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// transition maps a state to the function that executes it and decides
// the next state. Splitting the controller into one function per state
// (instead of one large switch) keeps each step's pre/postconditions
// legible.
type transition func(*Controller) State

var transitions = map[State]transition{
	StateBegin:            (*Controller).runBegin,
	StateSearchE1:         (*Controller).runSearchE1,
	StateExtendE1Shortcut: (*Controller).runExtendE1Shortcut,
	StateSearchE2:         (*Controller).runSearchE2,
	StateFindPairs:        (*Controller).runFindPairs,
	StateRecovery:         (*Controller).runRecovery,
}

// Run drives the controller from StateBegin to StateEnd, calling each
// state's transition function in turn.
func (c *Controller) Run() {
	state := StateBegin
	for state != StateEnd {
		fn, ok := transitions[state]
		if !ok {
			return
		}
		state = fn(c)
	}
}
