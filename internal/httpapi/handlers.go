package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/widget"
)

type handlers struct {
	svc    LoadoutService
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

type descriptor struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Endpoints []string  `json:"endpoints"`
}

func (h *handlers) describe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, descriptor{
		Status:    "ok",
		Message:   "D2 Loadout Widget Backend is running",
		Timestamp: h.now().UTC(),
		Version:   Version,
		Endpoints: []string{
			"GET /health - Health check",
			"GET /api/status - Bungie maintenance status",
			"GET /api/loadout/:platform/:membershipId - Get character loadout",
			"GET /api/loadout/:bungieName - Get character loadout by Bungie name (Name#1234)",
			"GET /api/search/:displayName - Search player by Bungie name",
		},
	})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		h.fail(w, r, err, failStatus, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type searchResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Players []widget.Player `json:"players"`
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "displayName")
	players, err := h.svc.Search(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, failSearch, name)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Count: len(players), Players: players})
}

func (h *handlers) loadoutByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "platformOrName")
	if !widget.IsBungieName(name) {
		writeError(w, http.StatusBadRequest, "Invalid request",
			"Expected a Bungie name like Name#1234, or /api/loadout/{platform}/{membershipId}", nil)
		return
	}
	h.loadout(w, r, widget.Request{BungieName: name}, name)
}

func (h *handlers) loadoutByMembership(w http.ResponseWriter, r *http.Request) {
	platform, err := strconv.Atoi(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request",
			"platform must be a numeric membership type", nil)
		return
	}
	req := widget.Request{MembershipType: platform, MembershipID: chi.URLParam(r, "membershipId")}
	h.loadout(w, r, req, req.MembershipID)
}

func (h *handlers) loadout(w http.ResponseWriter, r *http.Request, req widget.Request, subject string) {
	req.WithLink = h.opts.AlwaysLink || wantsLink(r)
	res, err := h.svc.Loadout(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, failLoadout, subject)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func wantsLink(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("dimlink"))
	return err == nil && v
}
