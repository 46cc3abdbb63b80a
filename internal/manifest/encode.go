package manifest

import (
	"fmt"
	"strings"
)

const (
	masonryNote = "> Layout: Two-column masonry grid. Photos load in the order listed. Caption appears below each photo."
	singleNote  = "> Layout: Single-column centered, max 720px. Photos display in the order listed. Title and optional description appear below each photo."

	masonryHeader = "| Order | Filename | Caption |\n|-------|----------|---------|\n"
	singleHeader  = "| Order | Filename | Title | Description |\n|-------|----------|-------|-------------|\n"
)

// Encoder renders a Site as manifest text.
type Encoder struct {
	// SiteName labels the Home row of the page index.
	SiteName string
	// BaseURL prefixes page links in the page index. Empty yields root-relative links.
	BaseURL string
}

// Encode renders site with a default Encoder.
func Encode(site *Site) string {
	return Encoder{}.Encode(site)
}

// Encode renders site as manifest text. Order numbers are recomputed from
// list position starting at 1. Decode(Encode(s)) reproduces s apart from Zoom.
func (e Encoder) Encode(site *Site) string {
	siteName := e.SiteName
	if siteName == "" {
		siteName = "Home"
	}
	base := strings.TrimRight(e.BaseURL, "/")

	var b strings.Builder
	b.WriteString("# Site Content\n\n")
	b.WriteString("> This file is the source of truth for all page names and photo labels.\n")
	b.WriteString("> Edit the tables below, then run `gallerist regenerate` or save from the admin console to rebuild the site.\n")
	b.WriteString("\n---\n\n## Pages\n\n")
	b.WriteString("| Page | Name | URL |\n|------|------|-----|\n")
	fmt.Fprintf(&b, "| Home | %s | %s/ |\n", cell(siteName), base)
	for _, p := range site.Pages {
		fmt.Fprintf(&b, "| %s | %s | %s/%s/ |\n", cell(p.Name), cell(p.Name), base, p.Dir)
	}

	for _, p := range site.Pages {
		fmt.Fprintf(&b, "\n---\n\n## %s Page (`%s/`)\n\n", oneLine(p.Name), p.Dir)
		if p.Layout == LayoutSingle {
			b.WriteString(singleNote + "\n\n" + singleHeader)
			for i, ph := range p.Photos {
				fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, cell(ph.Filename), cell(ph.Title), cell(ph.Desc))
			}
			continue
		}
		b.WriteString(masonryNote + "\n\n" + masonryHeader)
		for i, ph := range p.Photos {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, cell(ph.Filename), cell(ph.Caption))
		}
	}

	return b.String()
}

// cell makes s safe inside a table cell.
func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
