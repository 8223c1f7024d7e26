package binds

import (
	"log/slog"
	"testing"

	"github.com/studiowebux/rustactions/internal/keyspace"
)

// testSpace is big enough for small test ranges without paying for the
// full 33649-chord default enumeration in every test.
func testSpace(t *testing.T) *keyspace.Space {
	t.Helper()
	s, err := keyspace.New([]keyspace.Token{"a", "b", "c", "d", "e", "f", "g", "h"}, 3)
	if err != nil {
		t.Fatalf("keyspace.New: %v", err)
	}
	return s // C(8,3) = 56 chords
}

func testRanges() Ranges {
	return Ranges{
		Crafting: Range{Start: 0, End: 10},
		Static:   Range{Start: 10, End: 14},
		Dynamic:  Range{Start: 14, End: 16},
	}
}

func testAllocator(t *testing.T) *Allocator {
	t.Helper()
	a, err := NewAllocator(testSpace(t), testRanges(), slog.Default())
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	return a
}

func TestRangesDisjoint(t *testing.T) {
	r := DefaultRanges()
	if r.Crafting.End > r.Static.Start || r.Static.End > r.Dynamic.Start {
		t.Fatalf("default ranges overlap: %+v", r)
	}
	if err := r.Validate(keyspace.MustDefault().Count()); err != nil {
		t.Fatalf("default ranges invalid against default space: %v", err)
	}
}

func TestRangesValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		ranges Ranges
		space  int
	}{
		{
			"overlap",
			Ranges{Crafting: Range{0, 10}, Static: Range{9, 12}, Dynamic: Range{12, 14}},
			56,
		},
		{
			"beyond space",
			Ranges{Crafting: Range{0, 10}, Static: Range{10, 12}, Dynamic: Range{12, 100}},
			56,
		},
		{
			"malformed",
			Ranges{Crafting: Range{5, 3}, Static: Range{10, 12}, Dynamic: Range{12, 14}},
			56,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ranges.Validate(tt.space); err == nil {
				t.Errorf("Validate accepted %+v", tt.ranges)
			}
		})
	}
}

func TestInitializeCraftingAssignsAdjacentPairs(t *testing.T) {
	a := testAllocator(t)

	items := []CraftableItem{
		{NumericID: 1001, Name: "Wood"},
		{NumericID: -97956382, Name: "Tool Cupboard"},
		{NumericID: 15388698, Name: "Stone"},
	}
	bound := a.InitializeCrafting(items)
	if bound != len(items) {
		t.Fatalf("bound %d items, want %d", bound, len(items))
	}

	seen := make(map[int]int64)
	for i, item := range items {
		pair, ok := a.CraftPairFor(item.NumericID)
		if !ok {
			t.Fatalf("no pair for item %d", item.NumericID)
		}
		if pair.Cancel != pair.Craft+1 {
			t.Errorf("item %d: slots %d/%d not adjacent", item.NumericID, pair.Craft, pair.Cancel)
		}
		if pair.Craft != i*2 {
			t.Errorf("item %d: craft slot %d, want %d", item.NumericID, pair.Craft, i*2)
		}
		for _, slot := range []int{pair.Craft, pair.Cancel} {
			if owner, dup := seen[slot]; dup {
				t.Errorf("slot %d assigned to both %d and %d", slot, owner, item.NumericID)
			}
			seen[slot] = item.NumericID
			if a.IsFree(slot) {
				t.Errorf("slot %d assigned but reported free", slot)
			}
		}
	}
}

func TestInitializeCraftingStopsAtCapacity(t *testing.T) {
	a := testAllocator(t)

	// Crafting range holds 10 slots = 5 items; offer 7.
	var items []CraftableItem
	for i := int64(0); i < 7; i++ {
		items = append(items, CraftableItem{NumericID: 100 + i, Name: "Item"})
	}

	bound := a.InitializeCrafting(items)
	if bound != 5 {
		t.Fatalf("bound %d items, want 5", bound)
	}
	if _, ok := a.CraftPairFor(105); ok {
		t.Error("item beyond capacity received a pair")
	}
	if got := a.Stats().CraftingSlotsUsed; got != 10 {
		t.Errorf("crafting slots used = %d, want 10", got)
	}
}

func TestInitializeCraftingRecomputesFromScratch(t *testing.T) {
	a := testAllocator(t)

	a.InitializeCrafting([]CraftableItem{{NumericID: 1, Name: "A"}, {NumericID: 2, Name: "B"}})
	a.InitializeCrafting([]CraftableItem{{NumericID: 2, Name: "B"}})

	if _, ok := a.CraftPairFor(1); ok {
		t.Error("stale pair survived re-initialization")
	}
	pair, ok := a.CraftPairFor(2)
	if !ok {
		t.Fatal("item 2 lost its pair")
	}
	if pair.Craft != 0 {
		t.Errorf("item 2 craft slot = %d, want 0 after recompute", pair.Craft)
	}
	if got := a.Stats().CraftingSlotsUsed; got != 2 {
		t.Errorf("crafting slots used = %d, want 2", got)
	}
}

func TestInitializeStaticPreservesTableOrder(t *testing.T) {
	a := testAllocator(t)

	commands := []StaticCommand{
		{"kill", "kill"},
		{"hud_on", "graphics.hud 1"},
		{"hud_off", "graphics.hud 0"},
	}
	bound := a.InitializeStatic(commands)
	if bound != len(commands) {
		t.Fatalf("bound %d commands, want %d", bound, len(commands))
	}

	for i, cmd := range commands {
		bind, ok := a.StaticFor(cmd.Name)
		if !ok {
			t.Fatalf("no bind for %q", cmd.Name)
		}
		if bind.Slot != testRanges().Static.Start+i {
			t.Errorf("%q slot = %d, want %d", cmd.Name, bind.Slot, testRanges().Static.Start+i)
		}
		if bind.Command != cmd.Command {
			t.Errorf("%q command = %q, want %q", cmd.Name, bind.Command, cmd.Command)
		}
	}
}

func TestInitializeStaticStopsAtCapacity(t *testing.T) {
	a := testAllocator(t)

	// Static range holds 4 slots; offer 6 commands.
	commands := []StaticCommand{
		{"c0", "x"}, {"c1", "x"}, {"c2", "x"}, {"c3", "x"}, {"c4", "x"}, {"c5", "x"},
	}
	if bound := a.InitializeStatic(commands); bound != 4 {
		t.Fatalf("bound %d commands, want 4", bound)
	}
	if _, ok := a.StaticFor("c4"); ok {
		t.Error("command beyond capacity received a slot")
	}
}

func TestReserveTwicePanics(t *testing.T) {
	a := testAllocator(t)
	a.Reserve(3)

	defer func() {
		if recover() == nil {
			t.Error("double Reserve did not panic")
		}
	}()
	a.Reserve(3)
}

func TestReleaseMakesSlotReusable(t *testing.T) {
	a := testAllocator(t)
	a.Reserve(5)
	if a.IsFree(5) {
		t.Fatal("reserved slot reported free")
	}
	a.Release(5)
	if !a.IsFree(5) {
		t.Fatal("released slot still occupied")
	}
	a.Reserve(5) // must not panic
}

func TestStatsPerRange(t *testing.T) {
	a := testAllocator(t)
	a.InitializeCrafting([]CraftableItem{{NumericID: 1, Name: "A"}})
	a.InitializeStatic([]StaticCommand{{"kill", "kill"}})
	a.Reserve(testRanges().Dynamic.Start)

	s := a.Stats()
	if s.CraftingSlotsUsed != 2 || s.StaticSlotsUsed != 1 || s.DynamicSlotsUsed != 1 {
		t.Errorf("stats = %+v, want 2/1/1 per range", s)
	}
	if s.UsedSlots != 4 {
		t.Errorf("used slots = %d, want 4", s.UsedSlots)
	}
	if s.TotalSlots != 56 {
		t.Errorf("total slots = %d, want 56", s.TotalSlots)
	}
}

func TestStaticCommandTableFitsDefaultRange(t *testing.T) {
	if len(StaticCommands) > DefaultRanges().Static.Capacity() {
		t.Fatalf("static command table (%d entries) exceeds static range capacity (%d)",
			len(StaticCommands), DefaultRanges().Static.Capacity())
	}

	names := make(map[string]struct{}, len(StaticCommands))
	for _, cmd := range StaticCommands {
		if _, dup := names[cmd.Name]; dup {
			t.Errorf("duplicate static command name %q", cmd.Name)
		}
		names[cmd.Name] = struct{}{}
		if cmd.Command == "" {
			t.Errorf("static command %q has an empty console command", cmd.Name)
		}
	}
}
