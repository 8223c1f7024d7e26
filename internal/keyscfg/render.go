// Package keyscfg renders and parses the managed keys.cfg file.
//
// The file has two marked regions. The user section is pass-through: the
// player's own bindings, preserved byte-for-byte across rewrites. The
// rust-actions section is fully regenerated on every write from in-memory
// allocator state, in three labelled sub-blocks (crafting, API, chat).
// A `# Dynamic:` comment above each dynamic bind records the (command
// type, value, slot) triple so the file alone is enough to recover
// dynamic state when the sidecar database is missing.
package keyscfg

import (
	"fmt"
	"strings"

	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/keyspace"
)

// Section markers and sub-block headers. These are load-bearing: the game
// ignores comment lines, but the parser keys on them, and external tools
// built against the original format expect them verbatim.
const (
	userSectionStart = "#USER-SECTION-START"
	userSectionEnd   = "#USER-SECTION-END"
	actionsStart     = "#RUST-ACTIONS-START"
	actionsEnd       = "#RUST-ACTIONS-END"

	craftingHeader = "# === CRAFTING BINDS ==="
	apiHeader      = "# === API BINDS ==="
	chatHeader     = "# === CHAT/CONNECTION BINDS ==="

	dynamicCommentPrefix = "# Dynamic: "
)

// Document is the full allocator and cache state a write flushes to disk.
type Document struct {
	Space    *keyspace.Space
	Ranges   binds.Ranges
	Crafting []binds.CraftingBind
	Static   []binds.StaticBind
	Dynamic  []binds.DynamicEntry

	// UserSection overrides the pass-through block when non-nil. When
	// nil the writer preserves whatever the existing file carries,
	// falling back to DefaultUserSection on first run.
	UserSection []string
}

// DefaultUserSection is the stock binding block written into a fresh file
// so the game keeps a sane baseline after the first managed write. It
// mirrors the game's default layout plus the common movement/utility
// rebinds players expect.
var DefaultUserSection = []string{
	"bind tab inventory.toggle",
	"bind return chat.open",
	"bind space +jump",
	"bind 1 +slot1",
	"bind 2 +slot2",
	"bind 3 +slot3",
	"bind 4 +slot4",
	"bind 5 +slot5",
	"bind 6 +slot6",
	"bind 7 +holsteritem",
	"bind a +left",
	"bind b +gestures",
	"bind c +duck",
	"bind d +right",
	"bind e +use",
	"bind f lighttoggle",
	"bind g +map",
	"bind h +hoverloot",
	"bind k exec keys.cfg",
	"bind m +firemode",
	"bind n inventory.examineheld",
	"bind p +pets",
	"bind q +ping",
	"bind r +reload",
	"bind s +backward",
	"bind t chat.open",
	"bind v +voice",
	"bind w +forward",
	"bind x swapseats",
	"bind y +opentutorialhelp",
	"bind z attack;duck",
	"bind pageup +zoomincrease",
	"bind pagedown +zoomdecrease",
	"bind f1 combatlog;consoletoggle",
	"bind leftshift +sprint",
	"bind leftcontrol +duck",
	"bind mouse0 +attack",
	"bind mouse1 +attack2",
	"bind mouse2 +attack3",
	"bind mouse3 inventory.togglecrafting",
	"bind mousewheelup +invprev",
	"bind mousewheeldown +invnext",
	"bind [leftshift+mousewheelup] +wireslackup",
	"bind [leftshift+mousewheeldown] +wireslackdown",
}

// bindLine formats one bind directive. command may be `""` for a
// placeholder that keeps the slot's chord registered while unused.
func bindLine(chord keyspace.Chord, command string) string {
	return fmt.Sprintf("bind [%s] %s", chord, command)
}

// Render produces the complete file content. The user section comes
// first, then the regenerated rust-actions section; every slot of every
// range is rendered (occupied slots with their command, free slots with a
// `""` placeholder) so slot indices stay stable across game reloads.
func Render(doc Document) ([]byte, error) {
	user := doc.UserSection
	if user == nil {
		user = DefaultUserSection
	}

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(userSectionStart)
	for _, l := range user {
		line(l)
	}
	line(userSectionEnd)
	line("")

	line(actionsStart)
	line("# Rust Actions programmatically managed binds. Do not edit this section;")
	line("# it is regenerated in full on every change.")
	line("")

	line(craftingHeader)
	if err := renderCrafting(&b, doc); err != nil {
		return nil, err
	}
	line("")

	line(apiHeader)
	if err := renderStatic(&b, doc); err != nil {
		return nil, err
	}
	line("")

	line(chatHeader)
	if err := renderDynamic(&b, doc); err != nil {
		return nil, err
	}
	line("")

	line(actionsEnd)
	line("")

	return []byte(b.String()), nil
}

func chordFor(doc Document, slot int) (keyspace.Chord, error) {
	chord, ok := doc.Space.Chord(slot)
	if !ok {
		return nil, fmt.Errorf("slot %d outside chord space of %d", slot, doc.Space.Count())
	}
	return chord, nil
}

func renderCrafting(b *strings.Builder, doc Document) error {
	occupied := make(map[int]struct{}, len(doc.Crafting)*2)
	for _, bind := range doc.Crafting {
		craftChord, err := chordFor(doc, bind.Pair.Craft)
		if err != nil {
			return err
		}
		cancelChord, err := chordFor(doc, bind.Pair.Cancel)
		if err != nil {
			return err
		}

		fmt.Fprintf(b, "# Craft/Cancel %s (ID: %d) - reserved bind no.%d/%d\n",
			bind.ItemName, bind.ItemID, bind.Pair.Craft, bind.Pair.Cancel)
		fmt.Fprintln(b, bindLine(craftChord, fmt.Sprintf("craft.add %d 1", bind.ItemID)))
		fmt.Fprintln(b, bindLine(cancelChord, fmt.Sprintf("craft.cancel %d 1", bind.ItemID)))
		fmt.Fprintln(b)
		occupied[bind.Pair.Craft] = struct{}{}
		occupied[bind.Pair.Cancel] = struct{}{}
	}

	return renderReservedFill(b, doc, doc.Ranges.Crafting, occupied,
		"# Empty reserved binds for future crafting items")
}

func renderStatic(b *strings.Builder, doc Document) error {
	occupied := make(map[int]struct{}, len(doc.Static))
	for _, bind := range doc.Static {
		chord, err := chordFor(doc, bind.Slot)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "# API: %s - reserved bind no.%d\n", bind.Name, bind.Slot)
		fmt.Fprintln(b, bindLine(chord, bind.Command))
		fmt.Fprintln(b)
		occupied[bind.Slot] = struct{}{}
	}

	return renderReservedFill(b, doc, doc.Ranges.Static, occupied,
		"# Empty reserved binds for future API commands")
}

func renderDynamic(b *strings.Builder, doc Document) error {
	occupied := make(map[int]struct{}, len(doc.Dynamic))
	for _, entry := range doc.Dynamic {
		chord, err := chordFor(doc, entry.Slot)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%s - '%s' - bind no.%d\n",
			dynamicCommentPrefix, entry.Type, entry.Value, entry.Slot)
		fmt.Fprintln(b, bindLine(chord, entry.Type.Render(entry.Value)))
		fmt.Fprintln(b)
		occupied[entry.Slot] = struct{}{}
	}

	return renderReservedFill(b, doc, doc.Ranges.Dynamic, occupied,
		"# Empty reserved binds for future dynamic chat/connection commands")
}

// renderReservedFill writes a `""` placeholder bind for every unoccupied
// slot in the range, keeping the slot-to-chord registration stable in the
// game even while nothing uses the slot.
func renderReservedFill(b *strings.Builder, doc Document, r binds.Range, occupied map[int]struct{}, header string) error {
	if len(occupied) >= r.Capacity() {
		return nil
	}
	fmt.Fprintln(b, header)
	for slot := r.Start; slot < r.End; slot++ {
		if _, taken := occupied[slot]; taken {
			continue
		}
		chord, err := chordFor(doc, slot)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "# Reserved bind no.%d\n", slot)
		fmt.Fprintln(b, bindLine(chord, `""`))
	}
	fmt.Fprintln(b)
	return nil
}
