package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"awaken/internal/models"
	"awaken/internal/sage"
	"awaken/internal/services"
)

func userID(r *http.Request) uint {
	if u := UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return 0
}

func pathID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", services.ErrInvalidInput, raw)
	}
	return uint(id), nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", services.ErrInvalidInput, name)
	}
	return n, nil
}

type sageView struct {
	Key   sage.PersonaKey `json:"key"`
	Name  string          `json:"name"`
	Emoji string          `json:"emoji"`
	Style string          `json:"style"`
}

func (h *handler) listSages(w http.ResponseWriter, r *http.Request) {
	all := h.roster.All()
	out := make([]sageView, 0, len(all))
	for _, p := range all {
		out = append(out, sageView{Key: p.Key, Name: p.DisplayName, Emoji: p.Emoji, Style: p.Style})
	}
	respondJSON(w, http.StatusOK, map[string]any{"sages": out})
}

func (h *handler) listModels(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Models.ListModelGroups()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"groups": groups, "chain": h.chain})
}

func (h *handler) setModelEnabled(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: malformed model key", services.ErrInvalidInput))
		return
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if body.Enabled == nil {
		respondError(w, r, fmt.Errorf("%w: enabled is required", services.ErrInvalidInput))
		return
	}
	m, err := h.svc.Models.SetModelEnabled(r.Context(), key, *body.Enabled)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *handler) listPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.svc.Prompts.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

func (h *handler) topics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	withHistory, _ := strconv.ParseBool(q.Get("history"))
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	topics, err := h.svc.Topics.Generate(r.Context(), userID(r), services.TopicRequest{
		WithHistory: withHistory,
		Refresh:     refresh,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *handler) listEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.svc.Journal.List(r.Context(), userID(r), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var in services.CreateEntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.svc.Journal.Create(r.Context(), userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (h *handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.svc.Journal.Get(r.Context(), userID(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in services.UpdateEntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.svc.Journal.Update(r.Context(), userID(r), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.Journal.Delete(r.Context(), userID(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) todayCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Journal.TodayCount(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Favorites.List(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"favorites": list})
}

func (h *handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	var in services.AddFavoriteInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	f, err := h.svc.Favorites.Add(r.Context(), userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (h *handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.Favorites.Remove(r.Context(), userID(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Settings.Get(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateSettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.svc.Settings.Update(r.Context(), userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

type sageRequest struct {
	Content  string   `json:"content"`
	Sage     string   `json:"sage,omitempty"`
	Category string   `json:"category,omitempty"`
	Personas []string `json:"personas,omitempty"`
}

func (h *handler) sageInsight(w http.ResponseWriter, r *http.Request) {
	var in sageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	insight, err := h.svc.Sage.Insight(r.Context(), in.Content, in.Sage, in.Category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insight)
}

func (h *handler) sageInsights(w http.ResponseWriter, r *http.Request) {
	var in sageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	insights, err := h.svc.Sage.Insights(r.Context(), userID(r), in.Content, in.Category, in.Personas)
	respondInsights(w, r, insights, err)
}

func (h *handler) sageBlessings(w http.ResponseWriter, r *http.Request) {
	var in sageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	insights, err := h.svc.Sage.Blessings(r.Context(), userID(r), in.Content)
	respondInsights(w, r, insights, err)
}

func (h *handler) sageFeedback(w http.ResponseWriter, r *http.Request) {
	var in sageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	insights, err := h.svc.Sage.Feedback(r.Context(), userID(r), in.Content, in.Category)
	respondInsights(w, r, insights, err)
}

func respondInsights(w http.ResponseWriter, r *http.Request, insights []models.PersonaInsight, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (h *handler) sageSummary(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content  string              `json:"content"`
		Insights []sage.SummaryInput `json:"insights"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.svc.Sage.Summary(r.Context(), in.Content, in.Insights)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

type analysisResponse struct {
	*models.AnalysisResult
	Subtitle string `json:"subtitle"`
}

func (h *handler) analysis(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Analysis.Analyze(r.Context(), userID(r), chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, analysisResponse{AnalysisResult: res, Subtitle: services.AnalysisSubtitle(res.Type)})
}
