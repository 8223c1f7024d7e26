// Package binds owns bind-slot allocation: the partitioning of the chord
// space into reserved ranges, the assignment of crafting and static
// command slots at startup, and the LRU cache of dynamically allocated
// slots for runtime string values.
package binds

import (
	"fmt"
	"log/slog"

	"github.com/studiowebux/rustactions/internal/keyspace"
)

// CraftableItem is the slice of catalog data the allocator needs: the
// game's numeric item ID and a display name for the generated comments.
type CraftableItem struct {
	NumericID int64
	Name      string
}

// CraftPair is the two consecutive crafting-range slots assigned to one
// item: one to start a craft, one to cancel it.
type CraftPair struct {
	Craft  int
	Cancel int
}

// CraftingBind is one item's crafting assignment, in catalog order, as the
// renderer consumes it.
type CraftingBind struct {
	ItemID   int64
	ItemName string
	Pair     CraftPair
}

// StaticBind is one static command's assignment, in table order.
type StaticBind struct {
	Name    string
	Command string
	Slot    int
}

// Allocator owns the three slot ranges and the set of occupied slots.
// Crafting and static assignments are computed at initialization; the
// dynamic range is managed through Reserve/Release by the DynamicCache.
//
// Allocator is not safe for concurrent use; the trigger layer serializes
// all access under its own lock.
type Allocator struct {
	space  *keyspace.Space
	ranges Ranges
	log    *slog.Logger

	used map[int]struct{}

	crafting   map[int64]CraftPair
	craftOrder []int64
	craftNames map[int64]string

	static      map[string]StaticBind
	staticOrder []string
}

// NewAllocator builds an allocator over the given chord space. Ranges are
// validated against the space size before anything is assigned.
func NewAllocator(space *keyspace.Space, ranges Ranges, logger *slog.Logger) (*Allocator, error) {
	if err := ranges.Validate(space.Count()); err != nil {
		return nil, fmt.Errorf("invalid slot ranges: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{
		space:      space,
		ranges:     ranges,
		log:        logger,
		used:       make(map[int]struct{}),
		crafting:   make(map[int64]CraftPair),
		craftNames: make(map[int64]string),
		static:     make(map[string]StaticBind),
	}, nil
}

// Space returns the chord space the allocator assigns from.
func (a *Allocator) Space() *keyspace.Space {
	return a.space
}

// Ranges returns the slot range partitioning.
func (a *Allocator) Ranges() Ranges {
	return a.ranges
}

// InitializeCrafting assigns two consecutive crafting-range slots to each
// catalog item, in the order the catalog provides them. Any previous
// crafting assignment is discarded first. When the range runs out the
// remaining items are left unbound: a capacity warning is logged and the
// count of bound items is returned, but initialization itself succeeds.
func (a *Allocator) InitializeCrafting(items []CraftableItem) int {
	for _, pair := range a.crafting {
		delete(a.used, pair.Craft)
		delete(a.used, pair.Cancel)
	}
	a.crafting = make(map[int64]CraftPair, len(items))
	a.craftNames = make(map[int64]string, len(items))
	a.craftOrder = a.craftOrder[:0]

	for i, item := range items {
		craftSlot := a.ranges.Crafting.Start + i*2
		cancelSlot := craftSlot + 1
		if cancelSlot >= a.ranges.Crafting.End {
			a.log.Warn("crafting range exhausted, remaining items left unbound",
				"bound", i, "total", len(items), "capacity", a.ranges.Crafting.Capacity())
			return i
		}

		a.crafting[item.NumericID] = CraftPair{Craft: craftSlot, Cancel: cancelSlot}
		a.craftNames[item.NumericID] = item.Name
		a.craftOrder = append(a.craftOrder, item.NumericID)
		a.Reserve(craftSlot)
		a.Reserve(cancelSlot)
	}

	a.log.Info("crafting binds initialized", "items", len(a.craftOrder))
	return len(a.craftOrder)
}

// InitializeStatic assigns one static-range slot per entry of the fixed
// command table, in table order, with the same early-stop policy as
// crafting.
func (a *Allocator) InitializeStatic(commands []StaticCommand) int {
	for _, bind := range a.static {
		delete(a.used, bind.Slot)
	}
	a.static = make(map[string]StaticBind, len(commands))
	a.staticOrder = a.staticOrder[:0]

	for i, cmd := range commands {
		slot := a.ranges.Static.Start + i
		if slot >= a.ranges.Static.End {
			a.log.Warn("static range exhausted, remaining commands left unbound",
				"bound", i, "total", len(commands), "capacity", a.ranges.Static.Capacity())
			return i
		}

		a.static[cmd.Name] = StaticBind{Name: cmd.Name, Command: cmd.Command, Slot: slot}
		a.staticOrder = append(a.staticOrder, cmd.Name)
		a.Reserve(slot)
	}

	a.log.Info("static binds initialized", "commands", len(a.staticOrder))
	return len(a.staticOrder)
}

// Reserve marks a slot occupied. Reserving an already-occupied slot means
// the allocation discipline is broken, which is a programming error, not a
// runtime condition; it panics.
func (a *Allocator) Reserve(slot int) {
	if _, occupied := a.used[slot]; occupied {
		panic(fmt.Sprintf("binds: slot %d reserved twice", slot))
	}
	a.used[slot] = struct{}{}
}

// Release marks a slot free. Releasing a free slot is a no-op.
func (a *Allocator) Release(slot int) {
	delete(a.used, slot)
}

// IsFree reports whether the slot is unoccupied.
func (a *Allocator) IsFree(slot int) bool {
	_, occupied := a.used[slot]
	return !occupied
}

// CraftPairFor returns the crafting slot pair for an item, if it has one.
func (a *Allocator) CraftPairFor(itemID int64) (CraftPair, bool) {
	pair, ok := a.crafting[itemID]
	return pair, ok
}

// StaticFor returns the static bind for a command name, if it has one.
func (a *Allocator) StaticFor(name string) (StaticBind, bool) {
	bind, ok := a.static[name]
	return bind, ok
}

// StaticNames returns the bound command names in slot order.
func (a *Allocator) StaticNames() []string {
	return append([]string(nil), a.staticOrder...)
}

// CraftingBinds returns the crafting assignments in catalog order, for
// rendering.
func (a *Allocator) CraftingBinds() []CraftingBind {
	out := make([]CraftingBind, 0, len(a.craftOrder))
	for _, id := range a.craftOrder {
		out = append(out, CraftingBind{
			ItemID:   id,
			ItemName: a.craftNames[id],
			Pair:     a.crafting[id],
		})
	}
	return out
}

// StaticBinds returns the static assignments in slot order, for rendering.
func (a *Allocator) StaticBinds() []StaticBind {
	out := make([]StaticBind, 0, len(a.staticOrder))
	for _, name := range a.staticOrder {
		out = append(out, a.static[name])
	}
	return out
}

// Stats summarizes slot occupancy for the observability surface.
type Stats struct {
	TotalSlots        int `json:"totalSlots"`
	UsedSlots         int `json:"usedSlots"`
	CraftingSlotsUsed int `json:"craftingSlotsUsed"`
	StaticSlotsUsed   int `json:"staticSlotsUsed"`
	DynamicSlotsUsed  int `json:"dynamicSlotsUsed"`
}

// Stats counts occupied slots per range.
func (a *Allocator) Stats() Stats {
	s := Stats{
		TotalSlots: a.space.Count(),
		UsedSlots:  len(a.used),
	}
	for slot := range a.used {
		switch {
		case a.ranges.Crafting.Contains(slot):
			s.CraftingSlotsUsed++
		case a.ranges.Static.Contains(slot):
			s.StaticSlotsUsed++
		case a.ranges.Dynamic.Contains(slot):
			s.DynamicSlotsUsed++
		}
	}
	return s
}
