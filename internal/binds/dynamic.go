package binds

import (
	"fmt"
	"log/slog"
	"strings"
)

// CommandType names one of the dynamic command templates. The string
// values are persisted (in the sidecar store and the cfg comments), so
// they are stable identifiers, not display names.
type CommandType string

const (
	CommandChatSay           CommandType = "chat_say"
	CommandChatTeamSay       CommandType = "chat_teamsay"
	CommandClientConnect     CommandType = "client_connect"
	CommandRespawnSleepingBag CommandType = "respawn_sleepingbag"
	CommandInventoryGive     CommandType = "inventory_give"
)

// CommandTypes lists every supported dynamic command type.
var CommandTypes = []CommandType{
	CommandChatSay,
	CommandChatTeamSay,
	CommandClientConnect,
	CommandRespawnSleepingBag,
	CommandInventoryGive,
}

// Valid reports whether t is a supported command type.
func (t CommandType) Valid() bool {
	switch t {
	case CommandChatSay, CommandChatTeamSay, CommandClientConnect,
		CommandRespawnSleepingBag, CommandInventoryGive:
		return true
	}
	return false
}

// Render produces the console command for this type and value. Chat
// values are quoted; connect and respawn values are raw arguments; for
// inventory_give the value is already the complete command.
func (t CommandType) Render(value string) string {
	switch t {
	case CommandChatSay:
		return fmt.Sprintf(`chat.say "%s"`, value)
	case CommandChatTeamSay:
		return fmt.Sprintf(`chat.teamsay "%s"`, value)
	case CommandClientConnect:
		return "disconnect;client.connect " + value
	case CommandRespawnSleepingBag:
		return "respawn_sleepingbag " + value
	case CommandInventoryGive:
		return value
	}
	return ""
}

// DynamicEntry is one dynamic bind: a (type, value) pair mapped to a slot
// in the dynamic range.
type DynamicEntry struct {
	Type  CommandType
	Value string
	Slot  int
}

// dynamicKey identifies a cache entry. At most one slot exists per
// distinct (type, value) pair.
type dynamicKey struct {
	t CommandType
	v string
}

// Comment delimiters of the persisted dynamic-bind format. Values that
// contain them cannot round-trip through the cfg comments, so they are
// rejected at creation time.
var reservedDelimiters = []string{" - '", "' - bind no."}

// validateValue rejects values the persisted comment grammar cannot carry.
func validateValue(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value contains a line break", ErrUnsafeValue)
	}
	for _, delim := range reservedDelimiters {
		if strings.Contains(value, delim) {
			return fmt.Errorf("%w: value contains %q", ErrUnsafeValue, delim)
		}
	}
	return nil
}

// DynamicCache maps (command type, string value) pairs to slots in the
// dynamic range, bounded by the range capacity with least-recently-used
// eviction. The allocator tracks the underlying slot occupancy; the cache
// owns which pair occupies which slot and in what recency order.
//
// Like the Allocator, it is not safe for concurrent use on its own.
type DynamicCache struct {
	alloc *Allocator
	r     Range
	log   *slog.Logger

	entries map[dynamicKey]int
	bySlot  map[int]dynamicKey
	order   []int // recency order: head is the eviction victim
	next    int   // next never-used slot; wraps into the range
}

// NewDynamicCache builds an empty cache over the allocator's dynamic
// range.
func NewDynamicCache(alloc *Allocator, logger *slog.Logger) *DynamicCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamicCache{
		alloc:   alloc,
		r:       alloc.Ranges().Dynamic,
		log:     logger,
		entries: make(map[dynamicKey]int),
		bySlot:  make(map[int]dynamicKey),
		next:    alloc.Ranges().Dynamic.Start,
	}
}

// Len returns the number of live entries.
func (c *DynamicCache) Len() int {
	return len(c.entries)
}

// Capacity returns the dynamic range size.
func (c *DynamicCache) Capacity() int {
	return c.r.Capacity()
}

// GetOrCreate returns the slot bound to (commandType, value), creating one
// if needed. created reports whether a new bind was made (by allocation or
// eviction), which is the caller's signal that the cfg file must be
// rewritten and reloaded before the slot is usable. A hit only refreshes
// recency and needs no rewrite.
func (c *DynamicCache) GetOrCreate(commandType CommandType, value string) (slot int, created bool, err error) {
	if !commandType.Valid() {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownCommandType, commandType)
	}
	if err := validateValue(value); err != nil {
		return 0, false, err
	}

	key := dynamicKey{t: commandType, v: value}
	if slot, ok := c.entries[key]; ok {
		c.touch(slot)
		return slot, false, nil
	}

	if len(c.entries) >= c.r.Capacity() {
		// Full: evict the least-recently-touched entry and reuse its slot.
		victim := c.order[0]
		c.order = c.order[1:]
		victimKey := c.bySlot[victim]
		delete(c.entries, victimKey)
		delete(c.bySlot, victim)
		c.log.Info("evicting dynamic bind",
			"slot", victim, "type", victimKey.t, "value", victimKey.v)

		c.entries[key] = victim
		c.bySlot[victim] = key
		c.order = append(c.order, victim)
		return victim, true, nil
	}

	slot = c.takeFreeSlot()
	c.entries[key] = slot
	c.bySlot[slot] = key
	c.order = append(c.order, slot)
	c.alloc.Reserve(slot)
	c.log.Info("created dynamic bind", "slot", slot, "type", commandType, "value", value)
	return slot, true, nil
}

// touch moves a slot to the recency tail.
func (c *DynamicCache) touch(slot int) {
	for i, s := range c.order {
		if s == slot {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, slot)
}

// takeFreeSlot returns the next free slot in the dynamic range, starting
// from the wrap-around counter. The cache is not full when this is
// called, so a free slot always exists; the forward scan only matters
// when hydrated state left holes behind the counter.
func (c *DynamicCache) takeFreeSlot() int {
	for i := 0; i < c.r.Capacity(); i++ {
		slot := c.next
		c.next++
		if c.next >= c.r.End {
			c.next = c.r.Start
		}
		if c.alloc.IsFree(slot) {
			return slot
		}
	}
	panic("binds: dynamic range reported free capacity but no free slot found")
}

// Entries returns the live entries in recency order, least recently
// touched first. The position in this order is what the sidecar store
// persists so a restart rebuilds the same eviction sequence.
func (c *DynamicCache) Entries() []DynamicEntry {
	out := make([]DynamicEntry, 0, len(c.entries))
	for _, slot := range c.order {
		key := c.bySlot[slot]
		out = append(out, DynamicEntry{Type: key.t, Value: key.v, Slot: slot})
	}
	return out
}

// Lookup returns the entry occupying a slot, if any.
func (c *DynamicCache) Lookup(slot int) (DynamicEntry, bool) {
	key, ok := c.bySlot[slot]
	if !ok {
		return DynamicEntry{}, false
	}
	return DynamicEntry{Type: key.t, Value: key.v, Slot: slot}, true
}

// Hydrate replaces the cache contents with persisted entries, oldest
// first. Entries with an unknown type, an out-of-range slot, a duplicate
// slot, or an unsafe value are logged and skipped rather than failing the
// whole load.
func (c *DynamicCache) Hydrate(entries []DynamicEntry) {
	c.Clear()

	maxSlot := -1
	for _, e := range entries {
		switch {
		case !e.Type.Valid():
			c.log.Warn("skipping persisted dynamic bind with unknown type", "type", e.Type, "slot", e.Slot)
			continue
		case !c.r.Contains(e.Slot):
			c.log.Warn("skipping persisted dynamic bind outside dynamic range", "slot", e.Slot)
			continue
		case validateValue(e.Value) != nil:
			c.log.Warn("skipping persisted dynamic bind with unsafe value", "slot", e.Slot)
			continue
		}
		if _, taken := c.bySlot[e.Slot]; taken {
			c.log.Warn("skipping persisted dynamic bind with duplicate slot", "slot", e.Slot)
			continue
		}
		key := dynamicKey{t: e.Type, v: e.Value}
		if _, dup := c.entries[key]; dup {
			c.log.Warn("skipping duplicate persisted dynamic bind", "type", e.Type, "value", e.Value)
			continue
		}

		c.entries[key] = e.Slot
		c.bySlot[e.Slot] = key
		c.order = append(c.order, e.Slot)
		c.alloc.Reserve(e.Slot)
		if e.Slot > maxSlot {
			maxSlot = e.Slot
		}
	}

	c.next = maxSlot + 1
	if c.next < c.r.Start || c.next >= c.r.End {
		c.next = c.r.Start
	}
	c.log.Info("dynamic binds hydrated", "entries", len(c.entries))
}

// Clear releases every dynamic slot and empties the cache.
func (c *DynamicCache) Clear() {
	for slot := range c.bySlot {
		c.alloc.Release(slot)
	}
	c.entries = make(map[dynamicKey]int)
	c.bySlot = make(map[int]dynamicKey)
	c.order = c.order[:0]
	c.next = c.r.Start
}
