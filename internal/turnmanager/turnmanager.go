// Package turnmanager advances the turn cursor and tracks winners,
// generalized from the teacher's two-player switchTurn into an N-player
// cursor that must skip over players who have already finished.
package turnmanager

import "github.com/playrachel/engine/internal/rules"

// State is the subset of game state turnmanager reads and writes.
type State struct {
	CurrentIndex int
	NPlayers     int
	Direction    rules.Direction
	Finished     []bool // per-player-index, true once that player has gone out
	Winners      []int  // player indices in the order they went out
}

// CheckWinner marks playerIndex finished if hand is empty and they are not
// already recorded, appending them to Winners. Winners is monotonic: once
// a player is added, they are never removed or reordered.
func CheckWinner(s State, playerIndex int, handSize int) State {
	if handSize > 0 || s.Finished[playerIndex] {
		return s
	}
	finished := append([]bool(nil), s.Finished...)
	finished[playerIndex] = true
	s.Finished = finished
	s.Winners = append(append([]int(nil), s.Winners...), playerIndex)
	return s
}

// AdvanceTurn computes the candidate next index as a single modular jump of
// skipCount+1 slots (skips are a pure distance, blind to which seats along
// the way have already finished), then steps past the landing seat one
// position at a time, in the same direction, while it is Finished. It never
// selects a finished player even if doing so requires more than one extra
// step past the candidate landing.
func AdvanceTurn(s State, skipCount int) State {
	idx := rules.NextIndex(s.CurrentIndex, s.NPlayers, s.Direction, skipCount)
	for guard := 0; guard < s.NPlayers && s.Finished[idx]; guard++ {
		idx = rules.NextIndex(idx, s.NPlayers, s.Direction, 0)
	}
	s.CurrentIndex = idx
	return s
}

// ShouldEnd reports whether the round is over: either only one player
// remains unfinished (the loser), or every player has finished.
func ShouldEnd(s State) bool {
	remaining := 0
	for _, f := range s.Finished {
		if !f {
			remaining++
		}
	}
	return remaining <= 1
}
