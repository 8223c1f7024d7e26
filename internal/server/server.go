// Package server exposes the trigger controller over a local HTTP API.
// Every response is a JSON envelope with a success flag; trigger failures
// map onto 4xx/5xx statuses so callers can script against them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/catalog"
	"github.com/studiowebux/rustactions/internal/trigger"
)

type Server struct {
	ctrl       *trigger.Controller
	catalog    *catalog.Catalog
	version    string
	log        *slog.Logger
	httpServer *http.Server
}

func NewServer(ctrl *trigger.Controller, cat *catalog.Catalog, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{ctrl: ctrl, catalog: cat, version: version, log: log}
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", "error", err)
		}
	}()
	s.log.Info("http server listening", "addr", addr)
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Routes builds the handler. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /history", s.handleHistory)

	mux.HandleFunc("GET /items", s.handleItems)
	mux.HandleFunc("GET /items/search", s.handleItemSearch)
	mux.HandleFunc("GET /items/categories", s.handleCategories)
	mux.HandleFunc("GET /items/category/{category}", s.handleItemsByCategory)
	mux.HandleFunc("GET /items/stats", s.handleItemStats)
	mux.HandleFunc("GET /items/{id}", s.handleItemByID)

	mux.HandleFunc("POST /craft/id", s.handleCraftByID(false))
	mux.HandleFunc("POST /craft/name", s.handleCraftByName(false))
	mux.HandleFunc("POST /craft/cancel/id", s.handleCraftByID(true))
	mux.HandleFunc("POST /craft/cancel/name", s.handleCraftByName(true))
	mux.HandleFunc("POST /craft/cancel-all", s.handleStatic("cancel_all_crafting"))

	mux.HandleFunc("POST /player/suicide", s.handleStatic("kill"))
	mux.HandleFunc("POST /player/respawn", s.handleStatic("respawn"))
	mux.HandleFunc("POST /player/auto-run", s.handleStatic("autorun"))
	mux.HandleFunc("POST /player/auto-run-jump", s.handleStatic("autorun_jump"))
	mux.HandleFunc("POST /player/auto-crouch-attack", s.handleStatic("crouch_attack"))
	mux.HandleFunc("POST /player/respawn-bag", s.handleDynamic(binds.CommandRespawnSleepingBag, "name"))

	mux.HandleFunc("POST /game/quit", s.handleStatic("quit_game"))
	mux.HandleFunc("POST /game/disconnect", s.handleStatic("disconnect"))
	mux.HandleFunc("POST /game/connect", s.handleDynamic(binds.CommandClientConnect, "server"))

	mux.HandleFunc("POST /chat/global", s.handleDynamic(binds.CommandChatSay, "message"))
	mux.HandleFunc("POST /chat/team", s.handleDynamic(binds.CommandChatTeamSay, "message"))

	mux.HandleFunc("POST /inventory/give", s.handleDynamic(binds.CommandInventoryGive, "command"))
	mux.HandleFunc("POST /inventory/stack", s.handleStackInventory)

	mux.HandleFunc("POST /settings/hud", s.handleHud)
	mux.HandleFunc("POST /commands/{name}", s.handleCommand)
	mux.HandleFunc("POST /input/type-enter", s.handleTypeEnter)
	mux.HandleFunc("POST /binds/reload", s.handleReload)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError translates the trigger error taxonomy into HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, trigger.ErrUnknownCommand):
		status = http.StatusNotFound
	case errors.Is(err, binds.ErrUnsafeValue),
		errors.Is(err, binds.ErrUnknownCommandType),
		errors.Is(err, trigger.ErrNotCraftable):
		status = http.StatusBadRequest
	case errors.Is(err, trigger.ErrWindowNotFocused):
		status = http.StatusConflict
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ctrl.Stats()
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	records, err := s.ctrl.History(limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": records,
	})
}

func (s *Server) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items := s.catalog.Search(query, limit)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items := s.catalog.Items()
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "item id must be an integer"})
		return
	}
	item, err := s.catalog.ByNumericID(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item":    item,
	})
}

func (s *Server) handleItemsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	items := s.catalog.ByCategory(category)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"category": category,
		"items":    items,
		"count":    len(items),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.catalog.Categories()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
		"count":      len(categories),
	})
}

func (s *Server) handleItemStats(w http.ResponseWriter, r *http.Request) {
	categories := s.catalog.Categories()
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"total_items":      s.catalog.Len(),
			"total_categories": len(categories),
			"categories":       categories,
		},
	})
}

func (s *Server) handleStackInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Iterations int `json:"iterations"`
	}
	// The body is optional; an empty POST runs the default count.
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	res, err := s.ctrl.StackInventory(r.Context(), req.Iterations)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type craftRequest struct {
	ItemID   int64  `json:"itemId"`
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
}

func (s *Server) handleCraftByID(cancel bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req craftRequest
		if err := decodeBody(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		var res trigger.Result
		var err error
		if cancel {
			res, err = s.ctrl.CancelCraft(r.Context(), req.ItemID, req.Quantity)
		} else {
			res, err = s.ctrl.Craft(r.Context(), req.ItemID, req.Quantity)
		}
		if err != nil {
			s.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleCraftByName(cancel bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req craftRequest
		if err := decodeBody(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if req.ItemName == "" {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing itemName"})
			return
		}
		var res trigger.Result
		var err error
		if cancel {
			res, err = s.ctrl.CancelCraftByName(r.Context(), req.ItemName, req.Quantity)
		} else {
			res, err = s.ctrl.CraftByName(r.Context(), req.ItemName, req.Quantity)
		}
		if err != nil {
			s.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.ctrl.StaticCommand(r.Context(), name)
		if err != nil {
			s.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// handleCommand triggers any command from the static table by name, which
// covers the long tail (gestures, audio, env time) without one route per
// command.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	res, err := s.ctrl.StaticCommand(r.Context(), r.PathValue("name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleDynamic(commandType binds.CommandType, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := decodeBody(r, &body); err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		value := body[field]
		if value == "" {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing " + field})
			return
		}
		res, err := s.ctrl.DynamicCommand(r.Context(), commandType, value)
		if err != nil {
			s.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleHud(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	name := "hud_off"
	if req.Enabled {
		name = "hud_on"
	}
	res, err := s.ctrl.StaticCommand(r.Context(), name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleTypeEnter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Text == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing text"})
		return
	}
	res, err := s.ctrl.TypeAndEnter(r.Context(), req.Text)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, err := s.ctrl.ReloadBinds(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
