package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/metrics"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/photo"
	"github.com/hpungsan/gallerist/internal/store"
)

const testRootDoc = `<!DOCTYPE html>
<html>
<head>
  <title>Art Gallery</title>
  <link href="https://fonts.googleapis.com/css2?family=Cormorant+Garamond:ital,wght@0,300;0,400;1,300&family=Montserrat:wght@300;400&display=swap" rel="stylesheet">
  <style>
    body {
      background: #ffffff;
      color: #222222;
      font-family: 'Montserrat', sans-serif;
    }
    header h1 {
      font-family: 'Cormorant Garamond', serif;
      font-size: 3rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>Art Gallery</h1>
    <p>Photographs and paintings</p>
  </header>
  <nav>
  </nav>
  <div class="gallery-list">
  </div>
  <footer>2024</footer>
</body>
</html>
`

const testPageDoc = `<!DOCTYPE html>
<html>
<head>
  <title>Template</title>
  <style>
    body {
      background: #ffffff;
      color: #222222;
    }
  </style>
</head>
<body>
  <header>
    <h1>Template</h1>
  </header>
  <nav>
    <a href="../">Home</a>
  </nav>
  <div class="gallery" id="gallery"></div>
</body>
</html>
`

type testEnv struct {
	svc     *ops.Service
	store   *store.Store
	handler http.Handler
}

// setupTest writes a two-page gallery and returns the console router over it.
// configure may adjust the service and router options before they are used.
func setupTest(t *testing.T, configure func(*ops.Options, *Options)) *testEnv {
	t.Helper()
	root := t.TempDir()
	st := store.New(root, store.Options{SiteName: "Art Gallery"})

	site := &manifest.Site{Pages: []*manifest.Page{
		{ID: "page-1", Dir: "page-1", Name: "Artwork", Layout: manifest.LayoutMasonry,
			Photos: []*manifest.Photo{{Filename: "a.jpg", Caption: "First", Zoom: 1}}},
		{ID: "page-2", Dir: "page-2", Name: "Portraits", Layout: manifest.LayoutSingle,
			Photos: []*manifest.Photo{{Filename: "p.jpg", Title: "Portrait", Zoom: 1}}},
	}}
	for _, p := range site.Pages {
		if err := st.CreatePageDirs(p.ID); err != nil {
			t.Fatalf("CreatePageDirs failed: %v", err)
		}
		writeFile(t, st.PageIndexPath(p.ID), testPageDoc)
		if err := st.WritePhoto(p.ID, p.Photos[0].Filename, pngBytes(t, 8, 4)); err != nil {
			t.Fatalf("WritePhoto failed: %v", err)
		}
		if _, err := st.WriteLabels(p); err != nil {
			t.Fatalf("WriteLabels failed: %v", err)
		}
	}
	writeFile(t, st.RootIndexPath(), testRootDoc)
	if err := st.SaveSite(site); err != nil {
		t.Fatalf("SaveSite failed: %v", err)
	}

	opsOpts := ops.Options{Images: photo.NewProcessor(photo.Config{MaxDimension: 64, Quality: 80})}
	webOpts := Options{Version: "test", SiteName: "Art Gallery"}
	if configure != nil {
		configure(&opsOpts, &webOpts)
	}
	svc := ops.New(st, opsOpts)
	return &testEnv{svc: svc, store: st, handler: NewRouter(svc, webOpts)}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

// errorBody returns the "error" object of a JSON error response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	e, ok := decodeBody(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatalf("response has no error object: %s", rec.Body.String())
	}
	return e
}

// --- Pages ---

func TestHandleConsole(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Artwork", "Portraits", "Manifest, labels and photo directories agree."} {
		if !strings.Contains(body, want) {
			t.Errorf("console page missing %q", want)
		}
	}
}

func TestHandleConsole_HTMXRendersContentOnly(t *testing.T) {
	env := setupTest(t, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX response should not include the layout")
	}
	if !strings.Contains(rec.Body.String(), "Artwork") {
		t.Error("HTMX response missing page table")
	}
}

func TestHandleConsole_ReportsIssues(t *testing.T) {
	env := setupTest(t, nil)
	if err := os.Remove(env.store.PhotoPath("page-1", "a.jpg")); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, "GET", "/", "")
	if !strings.Contains(rec.Body.String(), "missing_photo") {
		t.Errorf("expected missing_photo issue in console, got:\n%s", rec.Body.String())
	}
}

func TestHandleManifest_RendersTables(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/manifest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Error("expected GFM table in rendered manifest")
	}
	if !strings.Contains(body, "<td>a.jpg</td>") {
		t.Error("expected photo row in rendered manifest")
	}
}

func TestHandleManifest_Missing(t *testing.T) {
	env := setupTest(t, nil)
	if err := os.Remove(env.store.ManifestPath()); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, "GET", "/manifest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "does not exist yet") {
		t.Error("expected missing-manifest notice")
	}
}

func TestHandleHistoryPage_NoJournal(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No operations recorded.") {
		t.Error("expected empty history notice")
	}
}

func TestNotFound_PageAndAPI(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("page status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 404") {
		t.Error("expected HTML error page for unknown page")
	}

	rec = env.do(t, "GET", "/api/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("api status = %d, want 404", rec.Code)
	}
	if code := errorBody(t, rec)["code"]; code != "NOT_FOUND" {
		t.Errorf("code = %v, want NOT_FOUND", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/", "")
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("console should carry a Content-Security-Policy")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("console should deny framing")
	}

	rec = env.do(t, "GET", "/preview/page-1/", "")
	if rec.Header().Get("Content-Security-Policy") != "" {
		t.Error("preview should not carry the console policy")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("preview should still set nosniff")
	}
}

// --- Preview ---

func TestPreview_ServesGallery(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/preview/page-1/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>Template</h1>") {
		t.Error("expected page document")
	}

	rec = env.do(t, "GET", "/preview", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/preview/" {
		t.Errorf("GET /preview = %d %q, want redirect to /preview/", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPreview_HidesDotFiles(t *testing.T) {
	env := setupTest(t, nil)
	writeFile(t, filepath.Join(env.store.Root(), ".env"), "GALLERIST_GIT_TOKEN=secret")
	writeFile(t, filepath.Join(env.store.Root(), ".gallerist", "journal.db"), "x")

	for _, path := range []string{"/preview/.env", "/preview/.gallerist/journal.db"} {
		rec := env.do(t, "GET", path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret") {
			t.Errorf("GET %s leaked file content", path)
		}
	}
}

// --- Content ---

func TestHandleContent_RoundTrip(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/api/content", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var site manifest.Site
	if err := json.Unmarshal(rec.Body.Bytes(), &site); err != nil {
		t.Fatalf("decode site: %v", err)
	}
	if len(site.Pages) != 2 || site.Pages[0].Photos[0].Caption != "First" {
		t.Fatalf("unexpected content: %s", rec.Body.String())
	}

	site.Pages[0].Photos[0].Caption = "Renamed"
	site.Pages[0].Name = "Paintings"
	payload, err := json.Marshal(site)
	if err != nil {
		t.Fatal(err)
	}

	rec = env.do(t, "POST", "/api/content", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["pages"]; got != float64(2) {
		t.Errorf("pages = %v, want 2", got)
	}

	saved, _, err := env.store.LoadSite()
	if err != nil {
		t.Fatalf("LoadSite failed: %v", err)
	}
	if saved.Pages[0].Name != "Paintings" || saved.Pages[0].Photos[0].Caption != "Renamed" {
		t.Errorf("edit not persisted: %+v", saved.Pages[0])
	}
}

func TestHandleSaveContent_Validation(t *testing.T) {
	env := setupTest(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing pages", `{}`, http.StatusBadRequest},
		{"bad json", `{"pages":`, http.StatusBadRequest},
		{"unknown page", `{"pages":[{"id":"nope","name":"X","type":"masonry","photos":[]}]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/content", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleRegenerateAndCheck(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/regenerate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("regenerate status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "GET", "/api/check", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d", rec.Code)
	}
	if ok := decodeBody(t, rec)["ok"]; ok != true {
		t.Errorf("check ok = %v, want true (%s)", ok, rec.Body.String())
	}
}

// --- Photos ---

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile(uploadField, name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	env := setupTest(t, nil)
	body, contentType := multipartBody(t, map[string][]byte{
		"sunset.png": pngBytes(t, 128, 64),
		"broken.jpg": []byte("not an image"),
	})

	req := httptest.NewRequest("POST", "/api/upload/page-1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out ops.UploadPhotosOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Added) != 1 || out.Added[0] != "sunset.jpg" {
		t.Errorf("added = %v, want [sunset.jpg]", out.Added)
	}
	if len(out.Failed) != 1 || out.Failed[0].Name != "broken.jpg" {
		t.Errorf("failed = %+v, want broken.jpg", out.Failed)
	}
	if !env.store.PhotoExists("page-1", "sunset.jpg") {
		t.Error("uploaded photo not stored")
	}
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/upload/page-1", `{"photos":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorBody(t, rec)["code"]; code != "INVALID_REQUEST" {
		t.Errorf("code = %v, want INVALID_REQUEST", code)
	}
}

func TestHandleAddPhoto(t *testing.T) {
	env := setupTest(t, nil)
	if err := env.store.WritePhoto("page-1", "b.jpg", pngBytes(t, 4, 4)); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, "POST", "/api/photo/page-1", `{"filename":"b.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if added := decodeBody(t, rec)["added"]; added != true {
		t.Errorf("added = %v, want true", added)
	}

	rec = env.do(t, "POST", "/api/photo/page-1", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing filename status = %d, want 400", rec.Code)
	}
	fields := errorBody(t, rec)["details"].(map[string]any)["fields"].(map[string]any)
	if fields["filename"] != "This field is required" {
		t.Errorf("fields = %v", fields)
	}
}

func TestHandleDeletePhoto(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "DELETE", "/api/photo/page-1/a.jpg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.store.PhotoExists("page-1", "a.jpg") {
		t.Error("photo file still on disk")
	}

	rec = env.do(t, "DELETE", "/api/photo/page-1/a.jpg", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if code := errorBody(t, rec)["code"]; code != "PHOTO_NOT_FOUND" {
		t.Errorf("code = %v, want PHOTO_NOT_FOUND", code)
	}
}

func TestHandleUpdatePhoto(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "PATCH", "/api/photo/page-1/a.jpg", `{"caption":"Dusk","zoom":1.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	labelsJS, err := os.ReadFile(env.store.LabelsPath("page-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(labelsJS), "Dusk") || !strings.Contains(string(labelsJS), "1.5") {
		t.Errorf("labels not rewritten:\n%s", labelsJS)
	}

	rec = env.do(t, "PATCH", "/api/photo/page-1/a.jpg", `{"zoom":11}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zoom 11 status = %d, want 400", rec.Code)
	}
	fields := errorBody(t, rec)["details"].(map[string]any)["fields"].(map[string]any)
	if _, ok := fields["zoom"]; !ok {
		t.Errorf("expected zoom field error, got %v", fields)
	}
}

func TestHandleRotate(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/rotate/page-1/a.jpg", `{"direction":"ccw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "POST", "/api/rotate/page-1/a.jpg", `{"direction":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad direction status = %d, want 400", rec.Code)
	}

	rec = env.do(t, "POST", "/api/rotate/page-1/missing.jpg", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing photo status = %d, want 404", rec.Code)
	}
}

// --- Pages ---

func TestHandleCreatePage(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/page", `{"name":"Black and White","type":"single"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	page := decodeBody(t, rec)["page"].(map[string]any)
	if page["id"] != "black-and-white" || page["type"] != "single" {
		t.Errorf("page = %v", page)
	}

	rec = env.do(t, "POST", "/api/page", `{"name":"Black and White"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
	if code := errorBody(t, rec)["code"]; code != "DUPLICATE_PAGE" {
		t.Errorf("code = %v, want DUPLICATE_PAGE", code)
	}

	rec = env.do(t, "POST", "/api/page", `{"name":"X","type":"grid"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type status = %d, want 400", rec.Code)
	}
}

func TestHandleRenameAndDeletePage(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "PATCH", "/api/page/page-2", `{"name":"Faces"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d, body %s", rec.Code, rec.Body.String())
	}
	if name := decodeBody(t, rec)["name"]; name != "Faces" {
		t.Errorf("name = %v, want Faces", name)
	}

	rec = env.do(t, "DELETE", "/api/page/page-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.store.PageDirExists("page-2") {
		t.Error("page directory still exists")
	}

	rec = env.do(t, "DELETE", "/api/page/page-2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandleReorder(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/reorder", `{"pageIds":["page-2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	order := decodeBody(t, rec)["order"].([]any)
	if len(order) != 2 || order[0] != "page-2" || order[1] != "page-1" {
		t.Errorf("order = %v, want [page-2 page-1]", order)
	}

	rec = env.do(t, "POST", "/api/reorder", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing pageIds status = %d, want 400", rec.Code)
	}
}

// --- Home, settings, publish ---

func TestHandleHome(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/api/home", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if title := decodeBody(t, rec)["title"]; title != "Art Gallery" {
		t.Errorf("title = %v, want Art Gallery", title)
	}

	rec = env.do(t, "POST", "/api/home", `{"subtitle":"Oil and ink"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	home := decodeBody(t, rec)
	if home["subtitle"] != "Oil and ink" || home["title"] != "Art Gallery" {
		t.Errorf("home = %v", home)
	}

	rec = env.do(t, "POST", "/api/home", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty patch status = %d, want 400", rec.Code)
	}
}

func TestHandleSettings(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	got := decodeBody(t, rec)
	if got["titleFont"] != "Cormorant Garamond" || got["bgColor"] != "#ffffff" {
		t.Errorf("settings = %v", got)
	}

	rec = env.do(t, "POST", "/api/settings",
		`{"bgColor":"#101010","textColor":"#eeeeee","titleFont":"Lora","bodyFont":"Lato","bodySize":18}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc, err := os.ReadFile(env.store.RootIndexPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc), "#101010") || !strings.Contains(string(doc), "family=Lora") {
		t.Errorf("root document not restyled:\n%s", doc)
	}
}

func TestHandleSaveSettings_Rejections(t *testing.T) {
	env := setupTest(t, nil)
	before, err := os.ReadFile(env.store.RootIndexPath())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"unknown font", `{"bgColor":"#ffffff","textColor":"#222222","titleFont":"Comic Sans","bodyFont":"Lato"}`, "UNKNOWN_FONT", ""},
		{"bad color", `{"bgColor":"white","textColor":"#222222","titleFont":"Lora","bodyFont":"Lato"}`, "INVALID_REQUEST", "bgColor"},
		{"body size", `{"bgColor":"#ffffff","textColor":"#222222","titleFont":"Lora","bodyFont":"Lato","bodySize":100}`, "INVALID_REQUEST", "bodySize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/settings", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			e := errorBody(t, rec)
			if e["code"] != tt.code {
				t.Errorf("code = %v, want %s", e["code"], tt.code)
			}
			if tt.field != "" {
				fields := e["details"].(map[string]any)["fields"].(map[string]any)
				if _, ok := fields[tt.field]; !ok {
					t.Errorf("expected %s field error, got %v", tt.field, fields)
				}
			}
		})
	}

	after, err := os.ReadFile(env.store.RootIndexPath())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("rejected settings changed the root document")
	}
}

func TestHandlePush_NotConfigured(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "POST", "/api/push", `{"message":"Add sunsets"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- History, metrics, quit ---

func TestHandleHistory_Empty(t *testing.T) {
	env := setupTest(t, nil)

	rec := env.do(t, "GET", "/api/history?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	entries, ok := decodeBody(t, rec)["entries"].([]any)
	if !ok || len(entries) != 0 {
		t.Errorf("entries = %v, want empty list", entries)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.NewRecorder(nil)
	env := setupTest(t, func(o *ops.Options, w *Options) {
		o.Metrics = rec
		w.Metrics = rec.Handler()
	})

	if res := env.do(t, "POST", "/api/reorder", `{"pageIds":["page-2"]}`); res.Code != http.StatusOK {
		t.Fatalf("reorder status = %d", res.Code)
	}

	res := env.do(t, "GET", "/metrics", "")
	if res.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `gallerist_operations_total{op="reorder",status="ok"} 1`) {
		t.Errorf("expected reorder counter in:\n%s", res.Body.String())
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	env := setupTest(t, nil)

	if rec := env.do(t, "GET", "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleQuit(t *testing.T) {
	quit := make(chan struct{})
	env := setupTest(t, func(_ *ops.Options, w *Options) { w.Quit = quit })

	for i := 0; i < 2; i++ {
		rec := env.do(t, "POST", "/api/quit", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}
	select {
	case <-quit:
	default:
		t.Fatal("quit channel not closed")
	}
}

func TestHandleQuit_Unavailable(t *testing.T) {
	env := setupTest(t, nil)

	if rec := env.do(t, "POST", "/api/quit", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(1700000000); got != "2023-11-14 22:13:20" {
		t.Errorf("formatTime = %q", got)
	}
}
