// Package keyspace enumerates the key combinations used as bind slots.
//
// A Space is built from an ordered alphabet of key tokens and a fixed
// combination size. Every K-subset of the alphabet, taken in lexicographic
// order, becomes one chord; the chord's position in that enumeration is its
// slot index. The enumeration is deterministic, so the same alphabet and
// size always produce the same slot-to-chord mapping.
package keyspace

import (
	"fmt"
	"strings"
)

// Token identifies one physical key as the game's console names it
// (e.g. "keypad7", "f13", "slash").
type Token string

// Chord is a fixed-size combination of tokens addressed as one bind slot.
type Chord []Token

// String renders the chord the way the bind file expects it: tokens joined
// with "+", e.g. "keypaddivide+keypad1+keypad2+keypad3+slash".
func (c Chord) String() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = string(t)
	}
	return strings.Join(parts, "+")
}

// DefaultAlphabet is the set of keys safe to dedicate to generated binds:
// keypad keys, high function keys, and punctuation the game accepts in
// combination binds. Order matters — it fixes the slot enumeration, and
// changing it invalidates every previously persisted slot index.
var DefaultAlphabet = []Token{
	"keypaddivide", "keypadmultiply", "keypadminus", "keypadplus", "keypadperiod",
	"keypad1", "keypad2", "keypad3", "keypad4", "keypad5",
	"keypad6", "keypad7", "keypad8", "keypad9", "keypad0",
	"f13", "f14", "f15",
	"slash", "period", "comma", "leftbracket", "rightbracket",
}

// DefaultChordSize is the number of keys per chord. Five keys make
// accidental manual presses practically impossible while keeping the
// combination count (C(23,5) = 33649) far above the reserved slot ranges.
const DefaultChordSize = 5

// Space is the immutable enumeration of all chords for one alphabet and
// chord size. Build it once at startup with New.
type Space struct {
	alphabet []Token
	size     int
	chords   []Chord
}

// New builds the chord enumeration for the given alphabet and chord size.
// It fails when the alphabet contains duplicates or when size exceeds the
// alphabet length (the combination space would be empty and every
// allocation downstream would fail).
func New(alphabet []Token, size int) (*Space, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chord size must be positive, got %d", size)
	}
	if size > len(alphabet) {
		return nil, fmt.Errorf("chord size %d exceeds alphabet length %d", size, len(alphabet))
	}

	seen := make(map[Token]struct{}, len(alphabet))
	for _, t := range alphabet {
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("duplicate token %q in alphabet", t)
		}
		seen[t] = struct{}{}
	}

	s := &Space{
		alphabet: append([]Token(nil), alphabet...),
		size:     size,
	}
	s.chords = enumerate(s.alphabet, size)
	return s, nil
}

// MustDefault returns the Space for DefaultAlphabet and DefaultChordSize.
// The default inputs are compile-time constants, so construction cannot
// fail; a failure here is a programming error.
func MustDefault() *Space {
	s, err := New(DefaultAlphabet, DefaultChordSize)
	if err != nil {
		panic(err)
	}
	return s
}

// Count returns the number of chords in the space.
func (s *Space) Count() int {
	return len(s.chords)
}

// Size returns the number of tokens per chord.
func (s *Space) Size() int {
	return s.size
}

// Chord returns the chord at the given slot index, or false when the index
// is outside the enumeration.
func (s *Space) Chord(slot int) (Chord, bool) {
	if slot < 0 || slot >= len(s.chords) {
		return nil, false
	}
	return s.chords[slot], true
}

// Fingerprint identifies the alphabet and chord size that produced this
// enumeration. Persisted slot indices are only meaningful against the same
// fingerprint; a mismatch means stored dynamic state must be discarded
// rather than replayed.
func (s *Space) Fingerprint() string {
	parts := make([]string, len(s.alphabet))
	for i, t := range s.alphabet {
		parts[i] = string(t)
	}
	return fmt.Sprintf("k%d:%s", s.size, strings.Join(parts, ","))
}

// enumerate produces all K-subsets of the alphabet in lexicographic order
// of alphabet positions: (0,1,...,k-1), then the rightmost index that can
// advance does, resetting everything after it.
func enumerate(alphabet []Token, size int) []Chord {
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}

	var chords []Chord
	for {
		chord := make(Chord, size)
		for i, idx := range indices {
			chord[i] = alphabet[idx]
		}
		chords = append(chords, chord)

		// Find the rightmost index that can still advance.
		i := size - 1
		for i >= 0 && indices[i] == len(alphabet)-size+i {
			i--
		}
		if i < 0 {
			return chords
		}
		indices[i]++
		for j := i + 1; j < size; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}
