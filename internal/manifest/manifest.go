package manifest

import (
	"regexp"
	"strings"
)

// Layout selects the display template of a page and the column set of its manifest table.
type Layout string

const (
	// LayoutMasonry is the two-column grid; photos carry a caption.
	LayoutMasonry Layout = "masonry"
	// LayoutSingle is the single centered column; photos carry a title and description.
	LayoutSingle Layout = "single"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutMasonry || l == LayoutSingle
}

// DefaultLabel is assigned to the caption (masonry) or title (single) of newly added photos.
const DefaultLabel = "Untitled"

// Site is the ordered list of gallery pages. Page order is the navigation order.
type Site struct {
	Pages []*Page `json:"pages"`
}

// Page is one gallery section. ID equals Dir and names the directory under the gallery root.
type Page struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Dir    string   `json:"dir"`
	Layout Layout   `json:"type"`
	Photos []*Photo `json:"photos"`
}

// Photo is one image entry. List position is the display order.
//
// Caption is used by masonry pages, Title and Desc by single pages.
// Zoom is never stored in the manifest; it comes from the page's label artifact.
type Photo struct {
	Filename string  `json:"filename"`
	Caption  string  `json:"caption,omitempty"`
	Title    string  `json:"title,omitempty"`
	Desc     string  `json:"desc,omitempty"`
	Zoom     float64 `json:"zoom"`
}

// NewPhoto returns a photo with the default labels for the layout.
func NewPhoto(layout Layout, filename string) *Photo {
	p := &Photo{Filename: filename, Zoom: 1}
	if layout == LayoutSingle {
		p.Title = DefaultLabel
	} else {
		p.Caption = DefaultLabel
	}
	return p
}

// Page returns the page with the given id, or nil.
func (s *Site) Page(id string) *Page {
	for _, p := range s.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Index returns the position of the page with the given id, or -1.
func (s *Site) Index(id string) int {
	for i, p := range s.Pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Remove drops the page with the given id. Reports whether a page was removed.
func (s *Site) Remove(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.Pages = append(s.Pages[:i], s.Pages[i+1:]...)
	return true
}

// Reorder moves the pages named in ids to the front, in that order.
// Unknown ids are ignored, repeated ids count once, and pages not named
// keep their relative order after the named ones.
func (s *Site) Reorder(ids []string) {
	seen := make(map[string]bool, len(ids))
	reordered := make([]*Page, 0, len(s.Pages))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if p := s.Page(id); p != nil {
			seen[id] = true
			reordered = append(reordered, p)
		}
	}
	for _, p := range s.Pages {
		if !seen[p.ID] {
			reordered = append(reordered, p)
		}
	}
	s.Pages = reordered
}

// Photo returns the photo with the given filename, or nil.
func (p *Page) Photo(filename string) *Photo {
	for _, ph := range p.Photos {
		if ph.Filename == filename {
			return ph
		}
	}
	return nil
}

// AddPhoto appends a photo with default labels. Reports false without
// changing the page when the filename is already listed.
func (p *Page) AddPhoto(filename string) bool {
	if p.Photo(filename) != nil {
		return false
	}
	p.Photos = append(p.Photos, NewPhoto(p.Layout, filename))
	return true
}

// RemovePhoto drops the photo with the given filename. Reports whether it was listed.
func (p *Page) RemovePhoto(filename string) bool {
	for i, ph := range p.Photos {
		if ph.Filename == filename {
			p.Photos = append(p.Photos[:i], p.Photos[i+1:]...)
			return true
		}
	}
	return false
}

var (
	slugSpace   = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slug derives a page id from a display name: lowercase, whitespace runs
// become hyphens, anything outside [a-z0-9-] is dropped.
// Returns "" when nothing survives.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSpace.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}
