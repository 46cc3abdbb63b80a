package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/journal"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/style"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// ContentSaveRequest represents the arguments for content_save.
type ContentSaveRequest struct {
	Pages []*manifest.Page `json:"pages"`
}

// PageCreateRequest represents the arguments for page_create.
type PageCreateRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// PageRequest identifies a page.
type PageRequest struct {
	ID string `json:"id"`
}

// PageRenameRequest represents the arguments for page_rename.
type PageRenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReorderRequest represents the arguments for reorder.
type ReorderRequest struct {
	PageIDs []string `json:"page_ids"`
}

// PhotoRequest identifies a photo on a page.
type PhotoRequest struct {
	PageID   string `json:"page_id"`
	Filename string `json:"filename"`
}

// UploadFile is one uploaded image; Data arrives base64 encoded.
type UploadFile struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// PhotoUploadRequest represents the arguments for photo_upload.
type PhotoUploadRequest struct {
	PageID string       `json:"page_id"`
	Files  []UploadFile `json:"files"`
}

// PhotoUpdateRequest represents the arguments for photo_update.
type PhotoUpdateRequest struct {
	PageID   string   `json:"page_id"`
	Filename string   `json:"filename"`
	Caption  *string  `json:"caption,omitempty"`
	Title    *string  `json:"title,omitempty"`
	Desc     *string  `json:"desc,omitempty"`
	Zoom     *float64 `json:"zoom,omitempty"`
}

// PhotoRotateRequest represents the arguments for photo_rotate.
type PhotoRotateRequest struct {
	PageID    string `json:"page_id"`
	Filename  string `json:"filename"`
	Direction string `json:"direction,omitempty"`
}

// HomeSetRequest represents the arguments for home_set.
type HomeSetRequest struct {
	Title    *string `json:"title,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
	Footer   *string `json:"footer,omitempty"`
}

// PublishRequest represents the arguments for publish.
type PublishRequest struct {
	Message string `json:"message,omitempty"`
}

// HistoryRequest represents the arguments for history.
type HistoryRequest struct {
	Limit int    `json:"limit,omitempty"`
	Op    string `json:"op,omitempty"`
}

// Handler implementations

// HandleContentGet handles the content_get tool call.
func (h *Handlers) HandleContentGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.GetContent(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleContentSave handles the content_save tool call.
func (h *Handlers) HandleContentSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContentSaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.SaveContent(ctx, ops.SaveContentInput{Pages: input.Pages})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePageCreate handles the page_create tool call.
func (h *Handlers) HandlePageCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageCreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.CreatePage(ctx, ops.CreatePageInput{
		Name:   input.Name,
		Layout: manifest.Layout(input.Type),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePageDelete handles the page_delete tool call.
func (h *Handlers) HandlePageDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.DeletePage(ctx, ops.DeletePageInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePageRename handles the page_rename tool call.
func (h *Handlers) HandlePageRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRenameRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.RenamePage(ctx, ops.RenamePageInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReorder handles the reorder tool call.
func (h *Handlers) HandleReorder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReorderRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Reorder(ctx, ops.ReorderInput{IDs: input.PageIDs})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePhotoAdd handles the photo_add tool call.
func (h *Handlers) HandlePhotoAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.AddPhoto(ctx, ops.AddPhotoInput{PageID: input.PageID, Filename: input.Filename})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePhotoUpload handles the photo_upload tool call.
func (h *Handlers) HandlePhotoUpload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoUploadRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	files := make([]ops.UploadFile, len(input.Files))
	for i, f := range input.Files {
		files[i] = ops.UploadFile{Name: f.Name, Data: f.Data}
	}

	result, err := h.svc.UploadPhotos(ctx, ops.UploadPhotosInput{PageID: input.PageID, Files: files})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePhotoRemove handles the photo_remove tool call.
func (h *Handlers) HandlePhotoRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.RemovePhoto(ctx, ops.RemovePhotoInput{PageID: input.PageID, Filename: input.Filename})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePhotoUpdate handles the photo_update tool call.
func (h *Handlers) HandlePhotoUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoUpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.UpdatePhoto(ctx, ops.UpdatePhotoInput{
		PageID:   input.PageID,
		Filename: input.Filename,
		Caption:  input.Caption,
		Title:    input.Title,
		Desc:     input.Desc,
		Zoom:     input.Zoom,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePhotoRotate handles the photo_rotate tool call.
func (h *Handlers) HandlePhotoRotate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoRotateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.RotatePhoto(ctx, ops.RotatePhotoInput{
		PageID:    input.PageID,
		Filename:  input.Filename,
		Direction: input.Direction,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.GetSettings(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsSave handles the settings_save tool call.
func (h *Handlers) HandleSettingsSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[style.Settings](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.SaveSettings(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHomeGet handles the home_get tool call.
func (h *Handlers) HandleHomeGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.GetHome(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHomeSet handles the home_set tool call.
func (h *Handlers) HandleHomeSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HomeSetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.SetHome(ctx, ops.SetHomeInput{
		Title:    input.Title,
		Subtitle: input.Subtitle,
		Footer:   input.Footer,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRegenerate handles the regenerate tool call.
func (h *Handlers) HandleRegenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.Regenerate(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePublish handles the publish tool call.
func (h *Handlers) HandlePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PublishRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Publish(ctx, ops.PublishInput{Message: input.Message})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistory handles the history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	entries, err := h.svc.History(ctx, journal.ListInput{Limit: input.Limit, Op: input.Op})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"entries": entries})
}

// HandleCheck handles the check tool call.
func (h *Handlers) HandleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.svc.Check(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal errors carry a generic message and no details since they may hold file paths.
func errorResult(err error) *mcp.CallToolResult {
	gErr := errors.From(err)

	errorObj := map[string]any{
		"code":    gErr.Code,
		"message": gErr.Message,
		"status":  gErr.Status,
	}
	if gErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if gErr.Details != nil {
		errorObj["details"] = gErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
