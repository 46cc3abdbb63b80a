package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/gallerist/internal/config"
	"github.com/hpungsan/gallerist/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"gallery_content_get": {
		def:     contentGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContentGet },
	},
	"gallery_content_save": {
		def:     contentSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContentSave },
	},
	"gallery_page_create": {
		def:     pageCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageCreate },
	},
	"gallery_page_delete": {
		def:     pageDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageDelete },
	},
	"gallery_page_rename": {
		def:     pageRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageRename },
	},
	"gallery_reorder": {
		def:     reorderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReorder },
	},
	"gallery_photo_add": {
		def:     photoAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoAdd },
	},
	"gallery_photo_upload": {
		def:     photoUploadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoUpload },
	},
	"gallery_photo_remove": {
		def:     photoRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoRemove },
	},
	"gallery_photo_update": {
		def:     photoUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoUpdate },
	},
	"gallery_photo_rotate": {
		def:     photoRotateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoRotate },
	},
	"gallery_settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"gallery_settings_save": {
		def:     settingsSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsSave },
	},
	"gallery_home_get": {
		def:     homeGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHomeGet },
	},
	"gallery_home_set": {
		def:     homeSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHomeSet },
	},
	"gallery_regenerate": {
		def:     regenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRegenerate },
	},
	"gallery_publish": {
		def:     publishToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublish },
	},
	"gallery_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"gallery_check": {
		def:     checkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheck },
	},
}

// AllToolNames returns the sorted names of all tools.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the gallery tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(svc *ops.Service, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"gallerist",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc *ops.Service, cfg *config.Config, version string) error {
	s := NewServer(svc, cfg, version)
	return server.ServeStdio(s)
}
