package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/catalog"
	"github.com/studiowebux/rustactions/internal/input"
	"github.com/studiowebux/rustactions/internal/keyscfg"
	"github.com/studiowebux/rustactions/internal/keyspace"
	"github.com/studiowebux/rustactions/internal/store"
	"github.com/studiowebux/rustactions/internal/trigger"
)

func newTestHandler(t *testing.T) (http.Handler, *input.Recorder) {
	t.Helper()

	alphabet := []keyspace.Token{"a", "b", "c", "d", "e", "f", "g", "h"}
	space, err := keyspace.New(alphabet, 3)
	if err != nil {
		t.Fatalf("keyspace.New: %v", err)
	}
	ranges := binds.Ranges{
		Crafting: binds.Range{Start: 0, End: 10},
		Static:   binds.Range{Start: 10, End: 30},
		Dynamic:  binds.Range{Start: 30, End: 34},
	}

	cat := catalog.New([]catalog.Item{
		{ID: "1", Name: "Stone Hatchet", NumericID: 1, Category: "Tools", UserCraftable: true,
			Ingredients: []catalog.Ingredient{{ID: "5", Amount: 200}}},
		{ID: "5", Name: "Wood", NumericID: 5, Category: "Resources"},
		{ID: "6", Name: "Tool Cupboard", NumericID: -97956382, Category: "Construction",
			Ingredients: []catalog.Ingredient{{ID: "5", Amount: 1000}}},
		{ID: "7", Name: "Wooden Ladder", NumericID: 1390353317, Category: "Construction",
			Ingredients: []catalog.Ingredient{{ID: "5", Amount: 300}}},
		{ID: "8", Name: "Stone Barricade", NumericID: 15388698, Category: "Construction",
			Ingredients: []catalog.Ingredient{{ID: "5", Amount: 100}}},
	})

	dir := t.TempDir()
	db, err := store.NewManager(filepath.Join(dir, "rustactions.db"))
	if err != nil {
		t.Fatalf("store.NewManager: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rec := &input.Recorder{}
	ctrl, err := trigger.NewController(trigger.Config{
		Space:   space,
		Ranges:  ranges,
		Catalog: cat,
		CfgFile: keyscfg.NewManager(filepath.Join(dir, "keys.cfg"), slog.Default()),
		Store:   db,
		Inj:     rec,
		Focus:   rec,
		Console: input.NewConsole(rec, "f1", "exec keys.cfg"),
		Logger:  slog.Default(),
	})
	if err != nil {
		t.Fatalf("trigger.NewController: %v", err)
	}
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	rec.Ops = nil

	return NewServer(ctrl, cat, "test", slog.Default()).Routes(), rec
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCraftByIDEndpoint(t *testing.T) {
	handler, rec := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/craft/id", map[string]any{"itemId": 1, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(rec.Ops) != 2 {
		t.Fatalf("expected 2 chords sent, got %v", rec.Ops)
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCraftUnknownItemReturns404(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/craft/id", map[string]any{"itemId": 999, "quantity": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCraftByNameSuggestionIn404(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/craft/name", map[string]any{"itemName": "Stone Hachet", "quantity": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decode(t, w)
	errMsg, _ := body["error"].(string)
	if !bytes.Contains([]byte(errMsg), []byte("Stone Hatchet")) {
		t.Fatalf("expected suggestion in error, got %q", errMsg)
	}
}

func TestNonCraftableItemReturns400(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/craft/id", map[string]any{"itemId": 5, "quantity": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPlayerSuicideEndpoint(t *testing.T) {
	handler, rec := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/player/suicide", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(rec.Ops) != 1 {
		t.Fatalf("expected 1 chord, got %v", rec.Ops)
	}
}

func TestGenericCommandEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/commands/respawn", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, http.MethodPost, "/commands/not-a-command", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown command, got %d", w.Code)
	}
}

func TestChatGlobalEndpoint(t *testing.T) {
	handler, rec := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/chat/global", map[string]string{"message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	// New bind: reload sequence then chord.
	if len(rec.Ops) != 4 {
		t.Fatalf("expected reload plus chord, got %v", rec.Ops)
	}

	rec.Ops = nil
	w = doJSON(t, handler, http.MethodPost, "/chat/global", map[string]string{"message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", w.Code)
	}
	if len(rec.Ops) != 1 {
		t.Fatalf("repeat should only send the chord, got %v", rec.Ops)
	}
}

func TestChatGlobalMissingMessage(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/chat/global", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatGlobalUnsafeValue(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/chat/global",
		map[string]string{"message": "a - 'b' - bind no.4"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for delimiter-colliding value, got %d", w.Code)
	}
}

func TestUnfocusedWindowReturns409(t *testing.T) {
	handler, rec := newTestHandler(t)
	rec.Unfocused = true
	w := doJSON(t, handler, http.MethodPost, "/player/suicide", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestHudToggle(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/settings/hud", map[string]bool{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestItemSearchEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodGet, "/items/search?q=stone", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["count"].(float64) < 1 {
		t.Fatalf("expected at least one match: %v", body)
	}

	w = doJSON(t, handler, http.MethodGet, "/items/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", w.Code)
	}
}

func TestItemBrowseEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/items", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["count"].(float64) != 5 {
		t.Fatalf("expected 5 items, got %v", body["count"])
	}

	w = doJSON(t, handler, http.MethodGet, "/items/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	item := decode(t, w)["item"].(map[string]any)
	if item["name"] != "Stone Hatchet" {
		t.Fatalf("unexpected item: %v", item)
	}

	w = doJSON(t, handler, http.MethodGet, "/items/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
	w = doJSON(t, handler, http.MethodGet, "/items/not-a-number", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer id, got %d", w.Code)
	}
}

func TestItemCategoryEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/items/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["count"].(float64) != 3 {
		t.Fatalf("expected 3 categories, got %v", body)
	}

	w = doJSON(t, handler, http.MethodGet, "/items/category/construction", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["count"].(float64) != 3 {
		t.Fatalf("expected 3 construction items, got %v", body)
	}

	w = doJSON(t, handler, http.MethodGet, "/items/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stats := decode(t, w)["stats"].(map[string]any)
	if stats["total_items"].(float64) != 5 || stats["total_categories"].(float64) != 3 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestStackInventoryEndpoint(t *testing.T) {
	handler, rec := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/inventory/stack", map[string]any{"iterations": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(rec.Ops) != 6 {
		t.Fatalf("expected 6 chords for 2 iterations of 3 items, got %v", rec.Ops)
	}

	w = doJSON(t, handler, http.MethodPost, "/inventory/stack", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatsAndHistoryEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t)

	doJSON(t, handler, http.MethodPost, "/player/suicide", nil)

	w := doJSON(t, handler, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /stats, got %d", w.Code)
	}
	stats := decode(t, w)
	if stats["trigger_count"].(float64) != 1 {
		t.Fatalf("expected 1 trigger, got %v", stats)
	}

	w = doJSON(t, handler, http.MethodGet, "/history?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /history, got %d", w.Code)
	}
	history := decode(t, w)
	records := history["history"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %v", history)
	}

	w = doJSON(t, handler, http.MethodGet, "/history?limit=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestTypeEnterEndpoint(t *testing.T) {
	handler, rec := newTestHandler(t)
	w := doJSON(t, handler, http.MethodPost, "/input/type-enter", map[string]string{"text": "o7"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(rec.Ops) != 2 || rec.Ops[0] != "type o7" {
		t.Fatalf("unexpected ops: %v", rec.Ops)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)
	w := doJSON(t, handler, http.MethodGet, "/craft/id", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
