package mcp

import "github.com/mark3labs/mcp-go/mcp"

var contentGetToolDef = mcp.NewTool("gallery_content_get",
	mcp.WithDescription("Read the gallery content model: pages in navigation order, each with its photos, labels and zoom."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var contentSaveToolDef = mcp.NewTool("gallery_content_save",
	mcp.WithDescription("Replace page names, photo lists and page order from an edited content model. Every page must already exist and keep its type. Pages left out follow the submitted ones."),
	mcp.WithArray("pages",
		mcp.Required(),
		mcp.Description("Pages as returned by gallery_content_get"),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var pageCreateToolDef = mcp.NewTool("gallery_page_create",
	mcp.WithDescription("Create an empty page at the end of the site. The directory name is derived from the name."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the page")),
	mcp.WithString("type", mcp.Description("Page layout"), mcp.Enum("masonry", "single")),
)

var pageDeleteToolDef = mcp.NewTool("gallery_page_delete",
	mcp.WithDescription("Delete a page with its directory and photos, and drop it from navigation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Page id (its directory name)")),
	mcp.WithDestructiveHintAnnotation(true),
)

var pageRenameToolDef = mcp.NewTool("gallery_page_rename",
	mcp.WithDescription("Change a page's display name. The directory is kept."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
)

var reorderToolDef = mcp.NewTool("gallery_reorder",
	mcp.WithDescription("Move the named pages to the front of the navigation in the given order."),
	mcp.WithArray("page_ids",
		mcp.Required(),
		mcp.Description("Page ids in their new order"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var photoAddToolDef = mcp.NewTool("gallery_photo_add",
	mcp.WithDescription("List a file that already exists in a page's photo directory. Adding a listed photo is a no-op."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithString("filename", mcp.Required(), mcp.Description("Photo file name")),
)

var photoUploadToolDef = mcp.NewTool("gallery_photo_upload",
	mcp.WithDescription("Upload images to a page. Each is resized and stored as JPEG. Files that fail are reported and the rest are kept."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithArray("files",
		mcp.Required(),
		mcp.Description("Images as {name, data} with base64 data"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"data": map[string]any{"type": "string", "contentEncoding": "base64"},
			},
			"required": []string{"name", "data"},
		}),
	),
)

var photoRemoveToolDef = mcp.NewTool("gallery_photo_remove",
	mcp.WithDescription("Unlist a photo and delete its file."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithString("filename", mcp.Required(), mcp.Description("Photo file name")),
	mcp.WithDestructiveHintAnnotation(true),
)

var photoUpdateToolDef = mcp.NewTool("gallery_photo_update",
	mcp.WithDescription("Change a photo's labels or zoom. Masonry pages use caption; single pages use title and desc."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithString("filename", mcp.Required(), mcp.Description("Photo file name")),
	mcp.WithString("caption", mcp.Description("Masonry caption")),
	mcp.WithString("title", mcp.Description("Single-page title")),
	mcp.WithString("desc", mcp.Description("Single-page description")),
	mcp.WithNumber("zoom", mcp.Description("Display zoom, greater than 0 and at most 10")),
)

var photoRotateToolDef = mcp.NewTool("gallery_photo_rotate",
	mcp.WithDescription("Rotate a stored photo by a quarter turn."),
	mcp.WithString("page_id", mcp.Required(), mcp.Description("Page id")),
	mcp.WithString("filename", mcp.Required(), mcp.Description("Photo file name")),
	mcp.WithString("direction", mcp.Description("Rotation direction (default cw)"), mcp.Enum("cw", "ccw")),
)

var settingsGetToolDef = mcp.NewTool("gallery_settings_get",
	mcp.WithDescription("Read the site colors, fonts and sizes, with the fonts that can be chosen."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsSaveToolDef = mcp.NewTool("gallery_settings_save",
	mcp.WithDescription("Apply colors, fonts and sizes to every document of the site."),
	mcp.WithString("bgColor", mcp.Required(), mcp.Description("Background color as #rgb or #rrggbb")),
	mcp.WithString("textColor", mcp.Required(), mcp.Description("Text color as #rgb or #rrggbb")),
	mcp.WithString("titleFont", mcp.Required(), mcp.Description("Title font from the catalog")),
	mcp.WithString("bodyFont", mcp.Required(), mcp.Description("Body font from the catalog")),
	mcp.WithNumber("titleSize", mcp.Description("Title size in rem")),
	mcp.WithNumber("bodySize", mcp.Description("Body size in px")),
)

var homeGetToolDef = mcp.NewTool("gallery_home_get",
	mcp.WithDescription("Read the home page title, subtitle and footer."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var homeSetToolDef = mcp.NewTool("gallery_home_set",
	mcp.WithDescription("Change the home page title, subtitle or footer. Omitted fields are kept."),
	mcp.WithString("title", mcp.Description("Site title")),
	mcp.WithString("subtitle", mcp.Description("Line under the title")),
	mcp.WithString("footer", mcp.Description("Footer text")),
)

var regenerateToolDef = mcp.NewTool("gallery_regenerate",
	mcp.WithDescription("Rebuild labels and navigation from the manifest after it was edited by hand."),
)

var publishToolDef = mcp.NewTool("gallery_publish",
	mcp.WithDescription("Commit every change in the gallery and push it."),
	mcp.WithString("message", mcp.Description("Commit message")),
)

var historyToolDef = mcp.NewTool("gallery_history",
	mcp.WithDescription("List recent gallery operations, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum entries (default 50, max 500)")),
	mcp.WithString("op", mcp.Description("Only this operation name")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var checkToolDef = mcp.NewTool("gallery_check",
	mcp.WithDescription("Compare the manifest with the files on disk and report inconsistencies."),
	mcp.WithReadOnlyHintAnnotation(true),
)
