// Package trigger orchestrates bind execution: it owns the allocator,
// the dynamic cache, persistence, and input injection, and serializes
// every trigger behind one mutex so concurrent requests cannot
// interleave keystrokes or config rewrites.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/catalog"
	"github.com/studiowebux/rustactions/internal/input"
	"github.com/studiowebux/rustactions/internal/keyscfg"
	"github.com/studiowebux/rustactions/internal/keyspace"
	"github.com/studiowebux/rustactions/internal/store"
)

var (
	ErrWindowNotFocused = errors.New("game window is not focused")
	ErrNotCraftable     = errors.New("item is not craftable")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Result is what an executed trigger reports back to the caller.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Slot    int    `json:"slot,omitempty"`
}

// Controller wires the bind subsystem together. All public methods are
// safe for concurrent use; triggers execute one at a time.
type Controller struct {
	mu sync.Mutex

	log     *slog.Logger
	space   *keyspace.Space
	alloc   *binds.Allocator
	dynamic *binds.DynamicCache
	catalog *catalog.Catalog
	cfg     *keyscfg.Manager
	db      *store.Manager
	inj     input.Injector
	focus   input.FocusChecker
	console *input.Console

	// pendingReload is set when keys.cfg gained a new bind but the game
	// has not re-read the file yet. No chord for a dynamic slot may be
	// sent while it is set, or the game would fire a stale placeholder.
	pendingReload bool
}

// Config collects the collaborators a Controller needs.
type Config struct {
	Space   *keyspace.Space
	Ranges  binds.Ranges
	Catalog *catalog.Catalog
	CfgFile *keyscfg.Manager
	Store   *store.Manager
	Inj     input.Injector
	Focus   input.FocusChecker
	Console *input.Console
	Logger  *slog.Logger
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Focus == nil {
		cfg.Focus = input.AlwaysFocused{}
	}

	alloc, err := binds.NewAllocator(cfg.Space, cfg.Ranges, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Controller{
		log:     cfg.Logger,
		space:   cfg.Space,
		alloc:   alloc,
		dynamic: binds.NewDynamicCache(alloc, cfg.Logger),
		catalog: cfg.Catalog,
		cfg:     cfg.CfgFile,
		db:      cfg.Store,
		inj:     cfg.Inj,
		focus:   cfg.Focus,
		console: cfg.Console,
	}, nil
}

// Initialize computes the full bind layout and flushes it to disk. On
// startup the persisted dynamic cache is restored from the database; an
// empty database is seeded once from the comments of an existing
// keys.cfg, which covers files written before the database existed. A
// changed keyspace invalidates all persisted slots, so that state is
// dropped instead of restored.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	craftable := c.catalog.Craftable()
	items := make([]binds.CraftableItem, len(craftable))
	for i, item := range craftable {
		items[i] = binds.CraftableItem{NumericID: item.NumericID, Name: item.Name}
	}
	bound := c.alloc.InitializeCrafting(items)
	c.alloc.InitializeStatic(binds.StaticCommands)

	cleared, err := c.db.EnsureFingerprint(c.space.Fingerprint())
	if err != nil {
		return err
	}
	if cleared {
		c.log.Warn("key layout changed, dropping persisted dynamic binds")
	}

	entries, err := c.db.LoadDynamic()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		parsed, err := c.cfg.Read()
		if err != nil {
			return err
		}
		if adopted, err := c.db.AdoptDynamic(parsed.Dynamic); err != nil {
			return err
		} else if adopted {
			c.log.Info("adopted dynamic binds from existing config file",
				"count", len(parsed.Dynamic))
			entries = parsed.Dynamic
		}
	}
	c.dynamic.Hydrate(entries)

	if err := c.persistLocked(); err != nil {
		return err
	}
	c.log.Info("binds initialized",
		"crafting_items", bound,
		"static_commands", len(binds.StaticCommands),
		"dynamic_entries", c.dynamic.Len())
	return nil
}

// persistLocked flushes current state to the database and the config
// file. Callers hold c.mu.
func (c *Controller) persistLocked() error {
	if err := c.db.ReplaceDynamic(c.dynamic.Entries()); err != nil {
		return err
	}
	doc := keyscfg.Document{
		Space:    c.space,
		Ranges:   c.alloc.Ranges(),
		Crafting: c.alloc.CraftingBinds(),
		Static:   c.alloc.StaticBinds(),
		Dynamic:  c.dynamic.Entries(),
	}
	return c.cfg.Write(doc)
}

func (c *Controller) requireFocus(ctx context.Context) error {
	focused, err := c.focus.Focused(ctx)
	if err != nil {
		return fmt.Errorf("focus check: %w", err)
	}
	if !focused {
		return ErrWindowNotFocused
	}
	return nil
}

func (c *Controller) record(rec store.TriggerRecord) {
	if err := c.db.RecordTrigger(rec); err != nil {
		c.log.Warn("failed to record trigger", "error", err)
	}
}

// sendSlot fires the chord of slot count times in a row.
func (c *Controller) sendSlot(ctx context.Context, slot, count int) error {
	chord, ok := c.space.Chord(slot)
	if !ok {
		return fmt.Errorf("slot %d has no key combination", slot)
	}
	for i := 0; i < count; i++ {
		if err := c.inj.SendChord(ctx, chord); err != nil {
			return fmt.Errorf("send combination for slot %d: %w", slot, err)
		}
	}
	return nil
}

// Craft queues quantity crafts of the item with the given game id.
func (c *Controller) Craft(ctx context.Context, itemID int64, quantity int) (Result, error) {
	item, err := c.catalog.ByNumericID(itemID)
	if err != nil {
		return Result{}, err
	}
	return c.craftItem(ctx, item, quantity, false)
}

// CraftByName resolves the item by display name. On a miss the error
// message carries close-match suggestions.
func (c *Controller) CraftByName(ctx context.Context, name string, quantity int) (Result, error) {
	item, err := c.catalog.ByName(name)
	if err != nil {
		return Result{}, c.withSuggestions(err, name)
	}
	return c.craftItem(ctx, item, quantity, false)
}

// CancelCraft cancels quantity queued crafts of the item.
func (c *Controller) CancelCraft(ctx context.Context, itemID int64, quantity int) (Result, error) {
	item, err := c.catalog.ByNumericID(itemID)
	if err != nil {
		return Result{}, err
	}
	return c.craftItem(ctx, item, quantity, true)
}

func (c *Controller) CancelCraftByName(ctx context.Context, name string, quantity int) (Result, error) {
	item, err := c.catalog.ByName(name)
	if err != nil {
		return Result{}, c.withSuggestions(err, name)
	}
	return c.craftItem(ctx, item, quantity, true)
}

func (c *Controller) withSuggestions(err error, name string) error {
	suggestions := c.catalog.Suggest(name, 3)
	if len(suggestions) == 0 {
		return err
	}
	return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
}

func (c *Controller) craftItem(ctx context.Context, item catalog.Item, quantity int, cancel bool) (Result, error) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pair, ok := c.alloc.CraftPairFor(item.NumericID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotCraftable, item.Name)
	}
	slot := pair.Craft
	kind := "craft"
	verb := "Crafting"
	if cancel {
		slot = pair.Cancel
		kind = "craft_cancel"
		verb = "Canceled crafting"
	}

	if err := c.requireFocus(ctx); err != nil {
		c.record(store.TriggerRecord{Kind: kind, Name: item.Name, Slot: slot, Error: err.Error()})
		return Result{}, err
	}
	if err := c.sendSlot(ctx, slot, quantity); err != nil {
		c.record(store.TriggerRecord{Kind: kind, Name: item.Name, Slot: slot, Error: err.Error()})
		return Result{}, err
	}

	c.record(store.TriggerRecord{Kind: kind, Name: item.Name, Slot: slot, Success: true})
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s %dx %s", verb, quantity, item.Name),
		Slot:    slot,
	}, nil
}

// stackItems are the game ids of the cheap items used to fill inventory
// stacks: tool cupboard, wood, stone.
var stackItems = []int64{-97956382, 1390353317, 15388698}

// stackDelay paces consecutive stacking rounds.
var stackDelay = 10 * time.Millisecond

// StackInventory queues one craft of each stacking item per iteration,
// which fills inventory slots with partial stacks. All three items must
// have crafting binds or the whole run is refused up front.
func (c *Controller) StackInventory(ctx context.Context, iterations int) (Result, error) {
	if iterations < 1 {
		iterations = 100
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	slots := make([]int, len(stackItems))
	for i, id := range stackItems {
		pair, ok := c.alloc.CraftPairFor(id)
		if !ok {
			return Result{}, fmt.Errorf("%w: stacking item %d has no crafting bind", ErrNotCraftable, id)
		}
		slots[i] = pair.Craft
	}

	if err := c.requireFocus(ctx); err != nil {
		c.record(store.TriggerRecord{Kind: "stack", Error: err.Error()})
		return Result{}, err
	}
	for i := 0; i < iterations; i++ {
		for _, slot := range slots {
			if err := c.sendSlot(ctx, slot, 1); err != nil {
				c.record(store.TriggerRecord{Kind: "stack", Error: err.Error()})
				return Result{}, err
			}
		}
		if i < iterations-1 {
			timer := time.NewTimer(stackDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Result{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	c.record(store.TriggerRecord{Kind: "stack", Success: true,
		Value: fmt.Sprintf("%d iterations", iterations)})
	return Result{
		Success: true,
		Message: fmt.Sprintf("Stacked inventory %d times", iterations),
	}, nil
}

// StaticCommand fires a named command from the fixed table.
func (c *Controller) StaticCommand(ctx context.Context, name string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bind, ok := c.alloc.StaticFor(name)
	if !ok {
		return Result{}, c.unknownStatic(name)
	}

	if err := c.requireFocus(ctx); err != nil {
		c.record(store.TriggerRecord{Kind: "static", Name: name, Slot: bind.Slot, Error: err.Error()})
		return Result{}, err
	}
	if err := c.sendSlot(ctx, bind.Slot, 1); err != nil {
		c.record(store.TriggerRecord{Kind: "static", Name: name, Slot: bind.Slot, Error: err.Error()})
		return Result{}, err
	}

	c.record(store.TriggerRecord{Kind: "static", Name: name, Slot: bind.Slot, Success: true})
	return Result{
		Success: true,
		Message: fmt.Sprintf("Executed %s", name),
		Slot:    bind.Slot,
	}, nil
}

func (c *Controller) unknownStatic(name string) error {
	var best string
	bestDistance := 4
	for _, candidate := range c.alloc.StaticNames() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	if best != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownCommand, name, best)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// DynamicCommand executes a value-carrying command. When the value has
// never been seen, a slot is allocated (evicting the least recently used
// entry if needed), the new layout is persisted and written to keys.cfg,
// and the game reloads the file before the chord is sent. Persistence or
// reload failure aborts the whole trigger without sending anything. A
// failed persist rolls the cache back to its previous state; a failed
// reload keeps the entry (it is already on disk) and the next trigger
// retries the reload before sending.
func (c *Controller) DynamicCommand(ctx context.Context, commandType binds.CommandType, value string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.dynamic.Entries()
	slot, created, err := c.dynamic.GetOrCreate(commandType, value)
	if err != nil {
		return Result{}, err
	}

	if created {
		if err := c.persistLocked(); err != nil {
			// Restore the pre-call snapshot so failed persistence
			// cannot leave memory ahead of disk. This also brings back
			// any entry the new value had evicted, which the last good
			// write still records.
			c.dynamic.Hydrate(prev)
			if dbErr := c.db.ReplaceDynamic(prev); dbErr != nil {
				c.log.Warn("failed to roll back persisted dynamic binds", "error", dbErr)
			}
			return Result{}, fmt.Errorf("persist new bind: %w", err)
		}
		c.pendingReload = true
	}
	if c.pendingReload {
		if err := c.console.Reload(ctx); err != nil {
			return Result{}, fmt.Errorf("reload binds in game: %w", err)
		}
		c.pendingReload = false
	}

	if err := c.requireFocus(ctx); err != nil {
		c.record(store.TriggerRecord{Kind: "dynamic", Name: string(commandType), Value: value, Slot: slot, Error: err.Error()})
		return Result{}, err
	}
	if err := c.sendSlot(ctx, slot, 1); err != nil {
		c.record(store.TriggerRecord{Kind: "dynamic", Name: string(commandType), Value: value, Slot: slot, Error: err.Error()})
		return Result{}, err
	}

	c.record(store.TriggerRecord{Kind: "dynamic", Name: string(commandType), Value: value, Slot: slot, Success: true})
	message := fmt.Sprintf("Executed %s", commandType)
	if created {
		message = fmt.Sprintf("Bound and executed %s (bind no.%d)", commandType, slot)
	}
	return Result{Success: true, Message: message, Slot: slot}, nil
}

// TypeAndEnter types free text into the focused window and submits it.
func (c *Controller) TypeAndEnter(ctx context.Context, text string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFocus(ctx); err != nil {
		return Result{}, err
	}
	if err := c.console.TypeAndEnter(ctx, text); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: "Text entered"}, nil
}

// ReloadBinds forces the game to re-read keys.cfg.
func (c *Controller) ReloadBinds(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireFocus(ctx); err != nil {
		return Result{}, err
	}
	if err := c.console.Reload(ctx); err != nil {
		return Result{}, err
	}
	c.pendingReload = false
	return Result{Success: true, Message: "Binds reloaded"}, nil
}

// Stats is a point-in-time summary of the whole subsystem.
type Stats struct {
	Binds          binds.Stats `json:"binds"`
	DynamicEntries int         `json:"dynamic_entries"`
	CatalogItems   int         `json:"catalog_items"`
	CraftableItems int         `json:"craftable_items"`
	TriggerCount   int64       `json:"trigger_count"`
}

func (c *Controller) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, err := c.db.CountTriggers()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Binds:          c.alloc.Stats(),
		DynamicEntries: c.dynamic.Len(),
		CatalogItems:   c.catalog.Len(),
		CraftableItems: len(c.catalog.Craftable()),
		TriggerCount:   count,
	}, nil
}

// History returns recent trigger records, newest first.
func (c *Controller) History(limit int) ([]store.TriggerRecord, error) {
	return c.db.History(limit)
}
