// Package symmetry collapses the 8-fold symmetry of the board into one canonical
// representative per equivalence class and translates actions between orientations.
package symmetry

import (
	"errors"
	"fmt"

	"tictactoe/game"
)

// ErrUnreachableOrientation is returned when two states are not symmetry-equivalent.
var ErrUnreachableOrientation = errors.New("symmetry: unreachable orientation")

// permutation maps a state to its image: image[i] = state[p[i]].
type permutation [game.Cells]game.Action

var identity = permutation{0, 1, 2, 3, 4, 5, 6, 7, 8}

// Clockwise 90° rotation.
var rotate = permutation{6, 3, 0, 7, 4, 1, 8, 5, 2}

// Top and bottom rows swap.
var mirrorHorizontal = permutation{6, 7, 8, 3, 4, 5, 0, 1, 2}

// Left and right columns swap.
var mirrorVertical = permutation{2, 1, 0, 5, 4, 3, 8, 7, 6}

// then returns the permutation applying p first and q second.
func (p permutation) then(q permutation) permutation {
	var r permutation
	for i := range r {
		r[i] = p[q[i]]
	}
	return r
}

func (p permutation) apply(s game.State) game.State {
	var out game.State
	for i, src := range p {
		out[i] = s[src]
	}
	return out
}

// symmetries lists the distinct group elements in generation order: identity and the two
// axis mirrors of the current orientation, then a quarter turn, four times.
var symmetries = generate()

func generate() []permutation {
	seen := make(map[permutation]bool, 8)
	result := make([]permutation, 0, 8)
	add := func(p permutation) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	current := identity
	for i := 0; i < 4; i++ {
		add(current)
		add(current.then(mirrorHorizontal))
		add(current.then(mirrorVertical))
		current = current.then(rotate)
	}
	if len(result) != 8 {
		panic(fmt.Sprintf("expected 8 symmetries, generated %d", len(result)))
	}
	return result
}

// Orbit returns every distinct state reachable from state by rotation or mirroring.
// The first element is always state itself.
func Orbit(state game.State) []game.State {
	seen := make(map[game.State]bool, len(symmetries))
	orbit := make([]game.State, 0, len(symmetries))
	for _, p := range symmetries {
		image := p.apply(state)
		if !seen[image] {
			seen[image] = true
			orbit = append(orbit, image)
		}
	}
	return orbit
}

// CanonicalKey returns the lexicographically smallest member of the orbit of state.
func CanonicalKey(state game.State) game.State {
	best := state
	for _, p := range symmetries {
		if image := p.apply(state); image.Less(best) {
			best = image
		}
	}
	return best
}

// find returns the first symmetry carrying from onto to.
func find(from, to game.State) (permutation, error) {
	for _, p := range symmetries {
		if p.apply(from) == to {
			return p, nil
		}
	}
	return permutation{}, fmt.Errorf("%w: %q is not an image of %q", ErrUnreachableOrientation, to, from)
}

// MapActionBack expresses an action chosen on canonical in the orientation of concrete.
func MapActionBack(canonical, concrete game.State, action game.Action) (game.Action, error) {
	if !action.Valid() {
		return game.NoAction, fmt.Errorf("symmetry: action %d out of range", action)
	}
	p, err := find(canonical, concrete)
	if err != nil {
		return game.NoAction, err
	}
	// concrete[i] = canonical[p[i]], so the canonical cell lands where p points at it
	for i, src := range p {
		if src == action {
			return game.Action(i), nil
		}
	}
	panic("symmetry: permutation is not a bijection")
}

// MapActionForward expresses an action played on concrete in the orientation of canonical.
// It is the inverse of MapActionBack for the same pair of states.
func MapActionForward(concrete, canonical game.State, action game.Action) (game.Action, error) {
	if !action.Valid() {
		return game.NoAction, fmt.Errorf("symmetry: action %d out of range", action)
	}
	p, err := find(canonical, concrete)
	if err != nil {
		return game.NoAction, err
	}
	return p[action], nil
}
