// Package catalog loads the Rust item database and answers lookups by
// numeric id, by display name, and by fuzzy search. The database file is
// JSON with optional comments, produced by the item update tooling.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
	"github.com/tidwall/jsonc"
)

var ErrItemNotFound = errors.New("item not found")

type Ingredient struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

type Item struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	NumericID      int64        `json:"numericId"`
	Shortname      string       `json:"shortname"`
	UserCraftable  bool         `json:"userCraftable"`
	CraftTime      float64      `json:"craftTime"`
	AmountToCreate int          `json:"amountToCreate"`
	WorkbenchLevel int          `json:"workbenchLevel"`
	Ingredients    []Ingredient `json:"ingredients"`
}

type database struct {
	Metadata struct {
		ItemCount int `json:"itemCount"`
	} `json:"metadata"`
	Items map[string]Item `json:"items"`
}

// Catalog is an immutable, indexed view over the item database.
type Catalog struct {
	items       []Item
	byNumericID map[int64]Item
	byName      map[string]Item
	names       []string
}

// Load reads and indexes the database file. A missing file yields an
// empty catalog rather than an error, matching a fresh install where the
// item update has not run yet.
func Load(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item database: %w", err)
	}

	var db database
	if err := json.Unmarshal(jsonc.ToJSON(content), &db); err != nil {
		return nil, fmt.Errorf("failed to parse item database: %w", err)
	}

	items := make([]Item, 0, len(db.Items))
	for _, item := range db.Items {
		items = append(items, item)
	}
	return New(items), nil
}

// New indexes items. Ordering of the input does not matter; the catalog
// always exposes items sorted by numeric id so downstream slot
// assignment is deterministic.
func New(items []Item) *Catalog {
	c := &Catalog{
		items:       append([]Item(nil), items...),
		byNumericID: make(map[int64]Item, len(items)),
		byName:      make(map[string]Item, len(items)),
	}
	sort.Slice(c.items, func(i, j int) bool {
		return c.items[i].NumericID < c.items[j].NumericID
	})
	for _, item := range c.items {
		c.byNumericID[item.NumericID] = item
		c.byName[strings.ToLower(item.Name)] = item
		c.names = append(c.names, item.Name)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.items) }

// Items returns all items sorted by numeric id.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Craftable returns the items that get crafting binds, sorted by numeric
// id. An item qualifies when its recipe has at least one ingredient; the
// userCraftable flag is ignored so the slot layout covers recipes the
// game only exposes situationally.
func (c *Catalog) Craftable() []Item {
	var out []Item
	for _, item := range c.items {
		if len(item.Ingredients) > 0 {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the distinct item categories, sorted. Items
// without a category fall under "Uncategorized".
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	for _, item := range c.items {
		seen[categoryOf(item)] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the items in a category, case-insensitively,
// sorted by numeric id.
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, item := range c.items {
		if strings.EqualFold(categoryOf(item), category) {
			out = append(out, item)
		}
	}
	return out
}

func categoryOf(item Item) string {
	if item.Category == "" {
		return "Uncategorized"
	}
	return item.Category
}

// ByNumericID looks an item up by its game item id.
func (c *Catalog) ByNumericID(id int64) (Item, error) {
	item, ok := c.byNumericID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	return item, nil
}

// ByName looks an item up by display name, case-insensitively.
func (c *Catalog) ByName(name string) (Item, error) {
	item, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	return item, nil
}

// Search ranks items against query by fuzzy match on the display name
// and returns up to limit of the best matches.
func (c *Catalog) Search(query string, limit int) []Item {
	if limit <= 0 {
		limit = 20
	}
	matches := fuzzy.Find(query, c.names)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.items[m.Index])
	}
	return out
}

// Suggest returns up to max item names within a small edit distance of
// name, closest first. Used for "did you mean" hints when a name lookup
// misses.
func (c *Catalog) Suggest(name string, max int) []string {
	if max <= 0 {
		max = 3
	}
	lower := strings.ToLower(name)

	type scored struct {
		name     string
		distance int
	}
	var candidates []scored
	for _, n := range c.names {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(n))
		if d <= 3 {
			candidates = append(candidates, scored{name: n, distance: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]string, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.name
	}
	return out
}
