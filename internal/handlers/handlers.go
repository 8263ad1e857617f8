package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Arbasante/proyecto-easyworship/internal/app"
	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/dialog"
	"github.com/Arbasante/proyecto-easyworship/internal/media"
	"github.com/Arbasante/proyecto-easyworship/internal/pages"
	"github.com/Arbasante/proyecto-easyworship/internal/projector"
	"github.com/Arbasante/proyecto-easyworship/internal/songs"
	"github.com/Arbasante/proyecto-easyworship/internal/sse"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	cmd *app.Commands
	hub *sse.Hub
}

// New creates a Handlers instance.
func New(cmd *app.Commands, hub *sse.Hub) *Handlers {
	return &Handlers{cmd: cmd, hub: hub}
}

// RegisterRoutes mounts every page, API route and the event stream on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	// Pages
	r.Get("/", h.HandleIndex)
	r.Get(projector.Route, h.HandleProjector)

	// SSE
	r.Get("/events", h.HandleSSE)

	// Media files for the projector
	r.Get("/media/{kind}/{id}", h.HandleMediaFile)

	r.Route("/api", func(r chi.Router) {
		r.Route("/songs", func(r chi.Router) {
			r.Get("/", h.HandleListSongs)
			r.Post("/", h.HandleCreateSong)
			r.Post("/export", h.HandleExportSongs)
			r.Post("/import", h.HandleImportSongs)
			r.Get("/{id}/slides", h.HandleSlides)
			r.Put("/{id}", h.HandleUpdateSong)
			r.Delete("/{id}", h.HandleDeleteSong)
		})

		r.Route("/bible", func(r chi.Router) {
			r.Get("/versions", h.HandleVersions)
			r.Get("/{version}/books", h.HandleBooks)
			r.Get("/{version}/{book}/{chapter}", h.HandleChapter)
			r.Get("/{version}/{book}/{chapter}/{verse}", h.HandleVerse)
		})

		r.Route("/projector", func(r chi.Router) {
			r.Get("/", h.HandleProjectorStatus)
			r.Post("/open", h.HandleOpenProjector)
			r.Post("/verse", h.HandlePushVerse)
			r.Post("/style", h.HandlePushStyle)
			r.Post("/video", h.HandlePushVideo)
		})

		r.Get("/images", h.HandleListImages)
		r.Post("/images", h.HandleAddImage)
		r.Delete("/images/{id}", h.HandleDeleteImage)
		r.Put("/images/{id}/aspect", h.HandleSetAspect)

		r.Get("/videos", h.HandleListVideos)
		r.Post("/videos", h.HandleAddVideo)
		r.Delete("/videos/{id}", h.HandleDeleteVideo)
		r.Put("/videos/{id}/loop", h.HandleSetLoop)

		r.Get("/pdfs", h.HandleListPDFs)
		r.Post("/pdfs", h.HandleAddPDF)
		r.Delete("/pdfs/{id}", h.HandleDeletePDF)

		r.Post("/pick/{kind}", h.HandlePick)
		r.Get("/settings", h.HandleSettings)
	})
}

// ── SSE ─────────────────────────────────────────────────

// HandleSSE streams server-sent events to browser clients. Projector pages
// connect with ?role=projector&window=<id>.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	q := r.URL.Query()
	client := sse.NewClient(q.Get("role"), q.Get("window"))

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case msg, ok := <-client.Events:
			if !ok {
				return
			}
			w.Write(msg)
			// Drain queued messages so they batch into one write.
		drain:
			for {
				select {
				case extra, ok := <-client.Events:
					if !ok {
						flusher.Flush()
						return
					}
					w.Write(extra)
				default:
					break drain
				}
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// ── Pages ───────────────────────────────────────────────

// HandleIndex renders the operator console.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.Index().Render(r.Context(), w)
}

// HandleProjector renders the projector output page.
func (h *Handlers) HandleProjector(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.Projector().Render(r.Context(), w)
}

// HandleMediaFile serves a cataloged image, video or PDF.
func (h *Handlers) HandleMediaFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	path, err := h.cmd.Media.FilePath(r.Context(), chi.URLParam(r, "kind"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

// ── Songs ───────────────────────────────────────────────

type songBody struct {
	Title  string `json:"title"`
	Lyrics string `json:"lyrics"`
}

// HandleListSongs lists songs alphabetically, filtered by ?q= when present.
func (h *Handlers) HandleListSongs(w http.ResponseWriter, r *http.Request) {
	list, err := h.cmd.Songs.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSlides returns a song's slides in order.
func (h *Handlers) HandleSlides(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	slides, err := h.cmd.Songs.Slides(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slides)
}

// HandleCreateSong creates a song from a title and blank-line separated lyrics.
func (h *Handlers) HandleCreateSong(w http.ResponseWriter, r *http.Request) {
	var body songBody
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := h.cmd.Songs.Create(r.Context(), body.Title, body.Lyrics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// HandleUpdateSong replaces a song's title and slides.
func (h *Handlers) HandleUpdateSong(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body songBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.cmd.Songs.Update(r.Context(), id, body.Title, body.Lyrics); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteSong removes a song and its slides.
func (h *Handlers) HandleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.cmd.Songs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportSongs runs the export dialog flow.
func (h *Handlers) HandleExportSongs(w http.ResponseWriter, r *http.Request) {
	msg, err := h.cmd.ExportSongs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// HandleImportSongs runs the import dialog flow.
func (h *Handlers) HandleImportSongs(w http.ResponseWriter, r *http.Request) {
	msg, err := h.cmd.ImportSongs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// ── Bible ───────────────────────────────────────────────

func (h *Handlers) HandleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.cmd.Bible.Versions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *Handlers) HandleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.cmd.Bible.Books(r.Context(), pathParam(r, "version"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handlers) HandleChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := strconv.Atoi(chi.URLParam(r, "chapter"))
	if err != nil {
		http.Error(w, "invalid chapter", http.StatusBadRequest)
		return
	}
	verses, err := h.cmd.Bible.ChapterVerses(r.Context(), pathParam(r, "version"), pathParam(r, "book"), chapter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verses)
}

// HandleVerse returns one verse, or null when it does not exist.
func (h *Handlers) HandleVerse(w http.ResponseWriter, r *http.Request) {
	chapter, err1 := strconv.Atoi(chi.URLParam(r, "chapter"))
	verse, err2 := strconv.Atoi(chi.URLParam(r, "verse"))
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid chapter or verse", http.StatusBadRequest)
		return
	}
	v, err := h.cmd.Bible.Verse(r.Context(), pathParam(r, "version"), pathParam(r, "book"), chapter, verse)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ── Projector ───────────────────────────────────────────

func (h *Handlers) HandleProjectorStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"open": h.cmd.Projector.IsOpen()})
}

// HandleOpenProjector shows the projector window, creating it if needed.
func (h *Handlers) HandleOpenProjector(w http.ResponseWriter, r *http.Request) {
	h.cmd.Projector.Open(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandlePushVerse forwards any JSON payload to the projector.
func (h *Handlers) HandlePushVerse(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	h.cmd.Projector.PushVerse(payload)
	w.WriteHeader(http.StatusNoContent)
}

// HandlePushStyle forwards style settings to the projector.
func (h *Handlers) HandlePushStyle(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	h.cmd.Projector.PushStyle(payload)
	w.WriteHeader(http.StatusNoContent)
}

// HandlePushVideo sends play, pause or restart to the projector.
func (h *Handlers) HandlePushVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if !projector.ValidVideoAction(body.Action) {
		http.Error(w, "action must be play, pause or restart", http.StatusBadRequest)
		return
	}
	h.cmd.Projector.PushVideoControl(body.Action)
	w.WriteHeader(http.StatusNoContent)
}

// ── Media ───────────────────────────────────────────────

type mediaBody struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (h *Handlers) HandleListImages(w http.ResponseWriter, r *http.Request) {
	list, err := h.cmd.Media.ListImages(r.Context())
	respond(w, list, err)
}

func (h *Handlers) HandleAddImage(w http.ResponseWriter, r *http.Request) {
	var body mediaBody
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := h.cmd.Media.AddImage(r.Context(), body.Name, body.Path)
	created(w, id, err)
}

func (h *Handlers) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if id, ok := parseID(w, r); ok {
		noContent(w, h.cmd.Media.DeleteImage(r.Context(), id))
	}
}

func (h *Handlers) HandleSetAspect(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body struct {
		Aspect string `json:"aspect"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	noContent(w, h.cmd.Media.SetImageAspect(r.Context(), id, body.Aspect))
}

func (h *Handlers) HandleListVideos(w http.ResponseWriter, r *http.Request) {
	list, err := h.cmd.Media.ListVideos(r.Context())
	respond(w, list, err)
}

func (h *Handlers) HandleAddVideo(w http.ResponseWriter, r *http.Request) {
	var body mediaBody
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := h.cmd.Media.AddVideo(r.Context(), body.Name, body.Path)
	created(w, id, err)
}

func (h *Handlers) HandleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if id, ok := parseID(w, r); ok {
		noContent(w, h.cmd.Media.DeleteVideo(r.Context(), id))
	}
}

func (h *Handlers) HandleSetLoop(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	noContent(w, h.cmd.Media.SetVideoLoop(r.Context(), id, body.Enabled))
}

func (h *Handlers) HandleListPDFs(w http.ResponseWriter, r *http.Request) {
	list, err := h.cmd.Media.ListPDFs(r.Context())
	respond(w, list, err)
}

func (h *Handlers) HandleAddPDF(w http.ResponseWriter, r *http.Request) {
	var body mediaBody
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := h.cmd.Media.AddPDF(r.Context(), body.Name, body.Path)
	created(w, id, err)
}

func (h *Handlers) HandleDeletePDF(w http.ResponseWriter, r *http.Request) {
	if id, ok := parseID(w, r); ok {
		noContent(w, h.cmd.Media.DeletePDF(r.Context(), id))
	}
}

// HandlePick shows a native file dialog for video, pdf or image files.
func (h *Handlers) HandlePick(w http.ResponseWriter, r *http.Request) {
	var (
		path string
		ok   bool
		err  error
	)
	switch chi.URLParam(r, "kind") {
	case "video":
		path, ok, err = h.cmd.PickVideo(r.Context())
	case "pdf":
		path, ok, err = h.cmd.PickPDF(r.Context())
	case "image":
		path, ok, err = h.cmd.PickImage(r.Context())
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// HandleSettings returns the persisted operator settings, such as the last
// projector style.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cmd.Preferences())
}

// ── Helpers ─────────────────────────────────────────────

// statusOf maps an error to the HTTP status reported to the UI.
func statusOf(err error) int {
	var busy *db.ConcurrencyError
	switch {
	case errors.As(err, &busy):
		return http.StatusServiceUnavailable
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, songs.ErrInvalidTitle),
		errors.Is(err, media.ErrInvalidAspect),
		errors.Is(err, media.ErrInvalidPath),
		errors.Is(err, media.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoPicker), errors.Is(err, dialog.ErrUnavailable):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func created(w http.ResponseWriter, id int64, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func noContent(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// readPayload reads a raw JSON body for the projector.
func readPayload(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil || !json.Valid(data) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	return json.RawMessage(data), true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// pathParam returns a decoded path parameter; book names may hold spaces.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if s, err := url.PathUnescape(v); err == nil {
		return s
	}
	return v
}
