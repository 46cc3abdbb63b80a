package web

import (
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/journal"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/style"
)

const (
	maxUploadBytes  = 512 << 20
	maxUploadMemory = 32 << 20
	uploadField     = "photos"
)

// Handlers contains HTTP route handlers for the admin console.
type Handlers struct {
	svc      *ops.Service
	renderer *Renderer

	quit     chan struct{}
	quitOnce sync.Once
}

// ConsolePageData is the template data for the console page.
type ConsolePageData struct {
	PageData
	Site   *manifest.Site
	Report *ops.CheckOutput
}

// ManifestPageData is the template data for the manifest preview.
type ManifestPageData struct {
	PageData
	Path         string
	RenderedHTML template.HTML
	Missing      bool
}

// HistoryPageData is the template data for the history page.
type HistoryPageData struct {
	PageData
	Entries []journal.Entry
	Op      string
}

// HandleConsole handles GET /: the page overview and a consistency report.
func (h *Handlers) HandleConsole(w http.ResponseWriter, r *http.Request) {
	site, err := h.svc.GetContent(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	report, err := h.svc.Check(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "console", ConsolePageData{
		PageData: h.renderer.pageData("Console", "console"),
		Site:     site,
		Report:   report,
	})
}

// HandleManifest handles GET /manifest: the manifest rendered as HTML.
func (h *Handlers) HandleManifest(w http.ResponseWriter, r *http.Request) {
	path := h.svc.Store().ManifestPath()
	data := ManifestPageData{PageData: h.renderer.pageData("Manifest", "manifest"), Path: path}

	text, ok, err := h.svc.Store().ReadDocument(path)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	data.Missing = !ok
	data.RenderedHTML = h.renderer.renderMarkdown(text)
	h.renderer.renderPage(w, r, "manifest", data)
}

// HandleHistoryPage handles GET /history: recent operations.
func (h *Handlers) HandleHistoryPage(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("op")
	entries, err := h.svc.History(r.Context(), journal.ListInput{Limit: parseIntParam(r, "limit", 100), Op: op})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: h.renderer.pageData("History", "history"),
		Entries:  entries,
		Op:       op,
	})
}

// HandleGetContent handles GET /api/content.
func (h *Handlers) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	site, err := h.svc.GetContent(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, site)
}

type contentRequest struct {
	Pages []*manifest.Page `json:"pages" validate:"required"`
}

// HandleSaveContent handles POST /api/content.
func (h *Handlers) HandleSaveContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.SaveContent(r.Context(), ops.SaveContentInput{Pages: req.Pages})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleUpload handles POST /api/upload/{page}. Files arrive in the multipart field "photos".
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("expected a multipart upload: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	files := make([]ops.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("unreadable upload "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("unreadable upload "+fh.Filename))
			return
		}
		files = append(files, ops.UploadFile{Name: fh.Filename, Data: data})
	}

	out, err := h.svc.UploadPhotos(r.Context(), ops.UploadPhotosInput{PageID: urlParam(r, "page"), Files: files})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type addPhotoRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
}

// HandleAddPhoto handles POST /api/photo/{page}. The file must already be in the photo directory.
func (h *Handlers) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	var req addPhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.AddPhoto(r.Context(), ops.AddPhotoInput{PageID: urlParam(r, "page"), Filename: req.Filename})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleDeletePhoto handles DELETE /api/photo/{page}/{filename}.
func (h *Handlers) HandleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RemovePhoto(r.Context(), ops.RemovePhotoInput{
		PageID:   urlParam(r, "page"),
		Filename: urlParam(r, "filename"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type updatePhotoRequest struct {
	Caption *string  `json:"caption"`
	Title   *string  `json:"title"`
	Desc    *string  `json:"desc"`
	Zoom    *float64 `json:"zoom" validate:"omitempty,gt=0,lte=10"`
}

// HandleUpdatePhoto handles PATCH /api/photo/{page}/{filename}.
func (h *Handlers) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var req updatePhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.UpdatePhoto(r.Context(), ops.UpdatePhotoInput{
		PageID:   urlParam(r, "page"),
		Filename: urlParam(r, "filename"),
		Caption:  req.Caption,
		Title:    req.Title,
		Desc:     req.Desc,
		Zoom:     req.Zoom,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type rotateRequest struct {
	Direction string `json:"direction" validate:"omitempty,oneof=cw ccw"`
}

// HandleRotate handles POST /api/rotate/{page}/{filename}.
func (h *Handlers) HandleRotate(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.RotatePhoto(r.Context(), ops.RotatePhotoInput{
		PageID:    urlParam(r, "page"),
		Filename:  urlParam(r, "filename"),
		Direction: req.Direction,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type createPageRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"type" validate:"omitempty,oneof=masonry single"`
}

// HandleCreatePage handles POST /api/page.
func (h *Handlers) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.CreatePage(r.Context(), ops.CreatePageInput{Name: req.Name, Layout: manifest.Layout(req.Type)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleDeletePage handles DELETE /api/page/{id}.
func (h *Handlers) HandleDeletePage(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DeletePage(r.Context(), ops.DeletePageInput{ID: urlParam(r, "id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type renamePageRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// HandleRenamePage handles PATCH /api/page/{id}.
func (h *Handlers) HandleRenamePage(w http.ResponseWriter, r *http.Request) {
	var req renamePageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.RenamePage(r.Context(), ops.RenamePageInput{ID: urlParam(r, "id"), Name: req.Name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type reorderRequest struct {
	PageIDs []string `json:"pageIds" validate:"required"`
}

// HandleReorder handles POST /api/reorder.
func (h *Handlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.Reorder(r.Context(), ops.ReorderInput{IDs: req.PageIDs})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGetHome handles GET /api/home.
func (h *Handlers) HandleGetHome(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetHome(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type homeRequest struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	Footer   *string `json:"footer"`
}

// HandleSetHome handles POST /api/home.
func (h *Handlers) HandleSetHome(w http.ResponseWriter, r *http.Request) {
	var req homeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.SetHome(r.Context(), ops.SetHomeInput{Title: req.Title, Subtitle: req.Subtitle, Footer: req.Footer})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGetSettings handles GET /api/settings.
func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetSettings(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type settingsRequest struct {
	BgColor   string   `json:"bgColor" validate:"required,hexcolor"`
	TextColor string   `json:"textColor" validate:"required,hexcolor"`
	TitleFont string   `json:"titleFont" validate:"required"`
	BodyFont  string   `json:"bodyFont" validate:"required"`
	TitleSize *float64 `json:"titleSize" validate:"omitempty,gt=0,lte=20"`
	BodySize  *int     `json:"bodySize" validate:"omitempty,gt=0,lte=72"`
}

// HandleSaveSettings handles POST /api/settings.
func (h *Handlers) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.SaveSettings(r.Context(), style.Settings{
		BgColor:   req.BgColor,
		TextColor: req.TextColor,
		TitleFont: req.TitleFont,
		BodyFont:  req.BodyFont,
		TitleSize: req.TitleSize,
		BodySize:  req.BodySize,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type pushRequest struct {
	Message string `json:"message" validate:"max=500"`
}

// HandlePush handles POST /api/push.
func (h *Handlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := h.svc.Publish(r.Context(), ops.PublishInput{Message: req.Message})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleHistory handles GET /api/history?limit=&op=.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), journal.ListInput{
		Limit: parseIntParam(r, "limit", 50),
		Op:    r.URL.Query().Get("op"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleRegenerate handles POST /api/regenerate.
func (h *Handlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Regenerate(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCheck handles GET /api/check.
func (h *Handlers) HandleCheck(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Check(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleQuit handles POST /api/quit, the operator shutdown request.
func (h *Handlers) HandleQuit(w http.ResponseWriter, r *http.Request) {
	if h.quit == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("shutdown is not available"))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"ok": true})
	h.quitOnce.Do(func() { close(h.quit) })
}

// previewHandler serves the gallery tree. Dot files and the journal
// directory are hidden.
func previewHandler(root string) http.Handler {
	fileServer := http.StripPrefix("/preview", http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, seg := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}

// urlParam returns a decoded route parameter.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
