package web

import (
	"encoding/json"
	"net/http"

	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/errors"
	"github.com/kmorand/attache/internal/graph"
)

// Handlers holds dependencies for web handlers.
type Handlers struct {
	synth    *dossier.Synthesizer
	cache    *graph.Cache
	notes    *db.NotesStore
	renderer *Renderer
}

// HandleDossierPage renders the HTML dossier view.
func (h *Handlers) HandleDossierPage(w http.ResponseWriter, r *http.Request) {
	d := h.synth.Generate(r.Context(), r.URL.Query().Get("refresh") == "true")

	data := DossierPageData{
		PageData:     PageData{Title: "Dossier", Version: h.renderer.version},
		Status:       d.SystemStatus,
		GeneratedAt:  formatTime(d.GeneratedAt),
		RenderedHTML: renderMarkdown(d.RawContext),
		NotesHTML:    renderMarkdown(d.UserNotes),
		HasNotes:     d.UserNotes != "",
	}
	h.renderer.Render(w, "dossier", data)
}

// HandleDossier returns the full dossier as JSON.
// ?refresh=true bypasses the dossier cache.
func (h *Handlers) HandleDossier(w http.ResponseWriter, r *http.Request) {
	d := h.synth.Generate(r.Context(), r.URL.Query().Get("refresh") == "true")
	writeJSON(w, http.StatusOK, d)
}

// HandleNotesGet returns the user notes.
func (h *Handlers) HandleNotesGet(w http.ResponseWriter, r *http.Request) {
	content, err := h.notes.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// HandleNotesSet replaces the user notes.
func (h *Handlers) HandleNotesSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	if err := h.notes.Set(body.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// HandleGraphData returns the graph snapshot.
// ?refresh=true bypasses the graph cache.
func (h *Handlers) HandleGraphData(w http.ResponseWriter, r *http.Request) {
	data := h.cache.Fetch(r.Context(), r.URL.Query().Get("refresh") == "true")
	writeJSON(w, http.StatusOK, data)
}

// HandleEpisode ingests one episode into the graph.
func (h *Handlers) HandleEpisode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content     string `json:"content"`
		Source      string `json:"source"`
		EpisodeType string `json:"episode_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if body.Content == "" {
		writeError(w, errors.NewInvalidRequest("content is required"))
		return
	}

	result := h.cache.AddEpisode(r.Context(), body.Content, body.Source, body.EpisodeType)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// HandleConversation ingests a conversation into the graph.
func (h *Handlers) HandleConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages  []graph.Message `json:"messages"`
		SessionID string          `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, errors.NewInvalidRequest("messages must not be empty"))
		return
	}

	result := h.cache.AddConversation(r.Context(), body.Messages, body.SessionID)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// HandleGraphClear destroys the graph and local layout state.
func (h *Handlers) HandleGraphClear(w http.ResponseWriter, r *http.Request) {
	result := h.cache.Clear(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// HandleAPINotFound answers unmatched /api/ paths with a structured 404.
func (h *Handlers) HandleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, errors.NewNotFound(r.URL.Path))
}

// HandleGraphHealth polls the graph service once.
func (h *Handlers) HandleGraphHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.CheckHealth(r.Context()))
}

// HandleLayoutSave persists node layout coordinates.
func (h *Handlers) HandleLayoutSave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nodes []graph.Node `json:"nodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if len(body.Nodes) == 0 {
		writeError(w, errors.NewInvalidRequest("nodes must not be empty"))
		return
	}

	if err := h.cache.SaveLayout(body.Nodes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(body.Nodes)})
}
