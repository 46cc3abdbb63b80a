package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/gallerist/internal/config"
	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/photo"
	"github.com/hpungsan/gallerist/internal/store"
)

const testDoc = `<!DOCTYPE html>
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
    }
  </style>
</head>
<body>
  <header>
    <h1>Art Gallery</h1>
    <p>Photographs</p>
  </header>
  <nav>
  </nav>
  <div class="gallery" id="gallery"></div>
  <footer>2024</footer>
</body>
</html>
`

// testSetup writes a gallery with a masonry page holding one photo and an
// empty single page, and returns handlers over it.
func testSetup(t *testing.T) (*Handlers, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), store.Options{SiteName: "Art Gallery"})

	site := &manifest.Site{Pages: []*manifest.Page{
		{ID: "page-1", Dir: "page-1", Name: "Artwork", Layout: manifest.LayoutMasonry,
			Photos: []*manifest.Photo{{Filename: "a.jpg", Caption: "First", Zoom: 1}}},
		{ID: "page-2", Dir: "page-2", Name: "Portraits", Layout: manifest.LayoutSingle,
			Photos: []*manifest.Photo{}},
	}}
	for _, p := range site.Pages {
		if err := st.CreatePageDirs(p.ID); err != nil {
			t.Fatalf("CreatePageDirs failed: %v", err)
		}
		writeFile(t, st.PageIndexPath(p.ID), testDoc)
		if _, err := st.WriteLabels(p); err != nil {
			t.Fatalf("WriteLabels failed: %v", err)
		}
	}
	if err := st.WritePhoto("page-1", "a.jpg", pngBytes(t, 8, 4)); err != nil {
		t.Fatalf("WritePhoto failed: %v", err)
	}
	writeFile(t, st.RootIndexPath(), testDoc)
	if err := st.SaveSite(site); err != nil {
		t.Fatalf("SaveSite failed: %v", err)
	}

	svc := ops.New(st, ops.Options{
		Images: photo.NewProcessor(photo.Config{MaxDimension: 64, Quality: 80}),
	})
	return NewHandlers(svc), st
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

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleContentGet(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleContentGet(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	pages := output["pages"].([]any)
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	first := pages[0].(map[string]any)
	if first["id"] != "page-1" || first["type"] != "masonry" {
		t.Errorf("first page = %v", first)
	}
}

func TestHandleContentSave(t *testing.T) {
	h, st := testSetup(t)

	result, err := h.HandleContentSave(context.Background(), makeRequest(map[string]any{
		"pages": []any{
			map[string]any{
				"id": "page-1", "name": "Paintings", "type": "masonry",
				"photos": []any{map[string]any{"filename": "a.jpg", "caption": "Dawn", "zoom": 2}},
			},
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parseOutput(t, result)

	site, _, err := st.LoadSite()
	if err != nil {
		t.Fatal(err)
	}
	if site.Pages[0].Name != "Paintings" || site.Pages[0].Photos[0].Caption != "Dawn" {
		t.Errorf("edit not saved: %+v", site.Pages[0])
	}
	if site.Pages[0].Photos[0].Zoom != 2 {
		t.Errorf("zoom = %v, want 2", site.Pages[0].Photos[0].Zoom)
	}
}

func TestHandleContentSave_InvalidArguments(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleContentSave(context.Background(), makeRequest(map[string]any{"pages": "nope"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandlePageLifecycle(t *testing.T) {
	h, st := testSetup(t)
	ctx := context.Background()

	result, err := h.HandlePageCreate(ctx, makeRequest(map[string]any{"name": "Studio Notes", "type": "single"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := parseOutput(t, result)["page"].(map[string]any)
	if page["id"] != "studio-notes" {
		t.Fatalf("id = %v, want studio-notes", page["id"])
	}
	if !st.PageDirExists("studio-notes") {
		t.Error("page directory not created")
	}

	result, _ = h.HandlePageCreate(ctx, makeRequest(map[string]any{"name": "Studio Notes"}))
	assertErrorCode(t, result, "DUPLICATE_PAGE")

	result, _ = h.HandlePageRename(ctx, makeRequest(map[string]any{"id": "studio-notes", "name": "Studio"}))
	if name := parseOutput(t, result)["name"]; name != "Studio" {
		t.Errorf("name = %v, want Studio", name)
	}

	result, _ = h.HandleReorder(ctx, makeRequest(map[string]any{"page_ids": []any{"studio-notes"}}))
	order := parseOutput(t, result)["order"].([]any)
	if order[0] != "studio-notes" {
		t.Errorf("order = %v, want studio-notes first", order)
	}

	result, _ = h.HandlePageDelete(ctx, makeRequest(map[string]any{"id": "studio-notes"}))
	parseOutput(t, result)
	if st.PageDirExists("studio-notes") {
		t.Error("page directory not removed")
	}

	result, _ = h.HandlePageDelete(ctx, makeRequest(map[string]any{"id": "studio-notes"}))
	assertErrorCode(t, result, "PAGE_NOT_FOUND")
}

func TestHandlePhotoUpload(t *testing.T) {
	h, st := testSetup(t)

	result, err := h.HandlePhotoUpload(context.Background(), makeRequest(map[string]any{
		"page_id": "page-2",
		"files": []any{
			map[string]any{"name": "face.png", "data": base64.StdEncoding.EncodeToString(pngBytes(t, 100, 50))},
			map[string]any{"name": "junk.jpg", "data": base64.StdEncoding.EncodeToString([]byte("junk"))},
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	added := output["added"].([]any)
	if len(added) != 1 || added[0] != "face.jpg" {
		t.Errorf("added = %v, want [face.jpg]", added)
	}
	if failed := output["failed"].([]any); len(failed) != 1 {
		t.Errorf("failed = %v, want one entry", failed)
	}
	if !st.PhotoExists("page-2", "face.jpg") {
		t.Error("uploaded photo not stored")
	}
}

func TestHandlePhotoUpload_NothingAdded(t *testing.T) {
	h, _ := testSetup(t)

	result, _ := h.HandlePhotoUpload(context.Background(), makeRequest(map[string]any{
		"page_id": "page-1",
		"files":   []any{map[string]any{"name": "junk.jpg", "data": base64.StdEncoding.EncodeToString([]byte("junk"))}},
	}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandlePhotoEdits(t *testing.T) {
	h, st := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandlePhotoUpdate(ctx, makeRequest(map[string]any{
		"page_id": "page-1", "filename": "a.jpg", "caption": "Evening", "zoom": 1.25,
	}))
	photoOut := parseOutput(t, result)["photo"].(map[string]any)
	if photoOut["caption"] != "Evening" || photoOut["zoom"] != 1.25 {
		t.Errorf("photo = %v", photoOut)
	}

	result, _ = h.HandlePhotoUpdate(ctx, makeRequest(map[string]any{
		"page_id": "page-1", "filename": "a.jpg", "title": "Wrong layout",
	}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandlePhotoRotate(ctx, makeRequest(map[string]any{"page_id": "page-1", "filename": "a.jpg"}))
	parseOutput(t, result)

	result, _ = h.HandlePhotoRotate(ctx, makeRequest(map[string]any{"page_id": "page-1", "filename": "zz.jpg"}))
	assertErrorCode(t, result, "PHOTO_NOT_FOUND")

	if err := st.WritePhoto("page-1", "b.jpg", pngBytes(t, 4, 4)); err != nil {
		t.Fatal(err)
	}
	result, _ = h.HandlePhotoAdd(ctx, makeRequest(map[string]any{"page_id": "page-1", "filename": "b.jpg"}))
	if added := parseOutput(t, result)["added"]; added != true {
		t.Errorf("added = %v, want true", added)
	}

	result, _ = h.HandlePhotoRemove(ctx, makeRequest(map[string]any{"page_id": "page-1", "filename": "b.jpg"}))
	parseOutput(t, result)
	if st.PhotoExists("page-1", "b.jpg") {
		t.Error("removed photo still on disk")
	}
}

func TestHandleSettings(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleSettingsGet(ctx, makeRequest(nil))
	output := parseOutput(t, result)
	if output["bodyFont"] != "Montserrat" {
		t.Errorf("bodyFont = %v, want Montserrat", output["bodyFont"])
	}
	if fonts := output["titleFonts"].([]any); len(fonts) == 0 {
		t.Error("expected title font catalog")
	}

	result, _ = h.HandleSettingsSave(ctx, makeRequest(map[string]any{
		"bgColor": "#000000", "textColor": "#ffffff", "titleFont": "Papyrus", "bodyFont": "Lato",
	}))
	assertErrorCode(t, result, "UNKNOWN_FONT")

	result, _ = h.HandleSettingsSave(ctx, makeRequest(map[string]any{
		"bgColor": "#000000", "textColor": "#ffffff", "titleFont": "Lora", "bodyFont": "Lato", "bodySize": 17,
	}))
	if written := parseOutput(t, result)["docs_written"]; written != float64(3) {
		t.Errorf("docs_written = %v, want 3", written)
	}
}

func TestHandleHome(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleHomeSet(ctx, makeRequest(map[string]any{"footer": "2025"}))
	if footer := parseOutput(t, result)["footer"]; footer != "2025" {
		t.Errorf("footer = %v, want 2025", footer)
	}

	result, _ = h.HandleHomeGet(ctx, makeRequest(nil))
	home := parseOutput(t, result)
	if home["title"] != "Art Gallery" || home["footer"] != "2025" {
		t.Errorf("home = %v", home)
	}

	result, _ = h.HandleHomeSet(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleMaintenance(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleRegenerate(ctx, makeRequest(nil))
	parseOutput(t, result)

	result, _ = h.HandleCheck(ctx, makeRequest(nil))
	if ok := parseOutput(t, result)["ok"]; ok != true {
		t.Errorf("check ok = %v, want true", ok)
	}

	result, _ = h.HandleHistory(ctx, makeRequest(map[string]any{"limit": 10}))
	if entries := parseOutput(t, result)["entries"].([]any); len(entries) != 0 {
		t.Errorf("entries = %v, want none without a journal", entries)
	}

	result, _ = h.HandlePublish(ctx, makeRequest(map[string]any{"message": "x"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	h, _ := testSetup(t)

	s := NewServer(h.svc, config.DefaultConfig(), "test")
	tools := s.ListTools()
	if len(tools) != len(toolRegistry) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry))
	}
	for _, name := range AllToolNames() {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	h, _ := testSetup(t)

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"gallery_publish", "gallery_page_delete", "gallery_publish"}
	s := NewServer(h.svc, cfg, "test")
	tools := s.ListTools()

	if len(tools) != len(toolRegistry)-2 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-2)
	}
	for _, name := range []string{"gallery_publish", "gallery_page_delete"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	h, _ := testSetup(t)

	cfg := config.DefaultConfig()
	cfg.DisabledTools = AllToolNames()
	if tools := NewServer(h.svc, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"gallery_publish", "gallery_check"}, wantLen: 0},
		{name: "one unknown", input: []string{"gallery_publish", "gallery_wipe"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 19 {
		t.Errorf("AllToolNames() returned %d names, want 19", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(fmt.Errorf("open /srv/gallery/CONTENT.md: permission denied"))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message = %v, want generic message", errObj["message"])
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("batch: %w", errors.NewPageNotFound("page-9")))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrPageNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrPageNotFound)
	}
	if errObj["status"] != float64(404) {
		t.Errorf("status=%v, want 404", errObj["status"])
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	gErr := errors.NewInvalidRequest("invalid fields: zoom")
	gErr.Details = map[string]any{"fields": map[string]any{"zoom": "too large"}}

	errObj := errorObject(t, errorResult(gErr))
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
