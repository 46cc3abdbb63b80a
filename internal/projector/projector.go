// Package projector rewrites the manifest-derived fragments of the site's HTML
// documents. Every rewrite replaces only the first occurrence of its anchor and
// leaves the document untouched when the anchor is absent; the boolean result
// reports whether the anchor was found.
package projector

import (
	"html"
	"regexp"
	"strings"

	"github.com/hpungsan/gallerist/internal/manifest"
)

var (
	titlePattern       = regexp.MustCompile(`<title>[^<]*</title>`)
	headingPattern     = regexp.MustCompile(`(<h1>)[^<]*(</h1>)`)
	navPattern         = regexp.MustCompile(`(?s)<nav>.*?</nav>`)
	galleryListPattern = regexp.MustCompile(`(?s)<div class="gallery-list">.*?</div>`)
	galleryPattern     = regexp.MustCompile(`(?s)<div class="gallery" id="gallery">.*?</div>`)
	headerPattern      = regexp.MustCompile(`(?s)<header>.*?</header>`)
	paragraphPattern   = regexp.MustCompile(`(<p>)[^<]*(</p>)`)
	footerPattern      = regexp.MustCompile(`(<footer>)[^<]*(</footer>)`)
)

// replaceFirst swaps the first match of re in doc for repl. Submatch groups are not expanded.
func replaceFirst(doc string, re *regexp.Regexp, repl string) (string, bool) {
	loc := re.FindStringIndex(doc)
	if loc == nil {
		return doc, false
	}
	return doc[:loc[0]] + repl + doc[loc[1]:], true
}

// replaceInner swaps the text between the first two submatch groups of re's first match.
func replaceInner(doc string, re *regexp.Regexp, inner string) (string, bool) {
	loc := re.FindStringSubmatchIndex(doc)
	if loc == nil || len(loc) < 6 {
		return doc, false
	}
	return doc[:loc[3]] + inner + doc[loc[4]:], true
}

// SetTitle replaces the document title.
func SetTitle(doc, title string) (string, bool) {
	return replaceFirst(doc, titlePattern, "<title>"+html.EscapeString(title)+"</title>")
}

// SetHeading replaces the text of the first h1.
func SetHeading(doc, heading string) (string, bool) {
	return replaceInner(doc, headingPattern, html.EscapeString(heading))
}

// Heading returns the unescaped text of the first h1.
func Heading(doc string) (string, bool) {
	loc := headingPattern.FindStringSubmatchIndex(doc)
	if loc == nil {
		return "", false
	}
	return html.UnescapeString(doc[loc[3]:loc[4]]), true
}

// SetNav replaces the navigation block with links.
func SetNav(doc, links string) (string, bool) {
	return replaceFirst(doc, navPattern, "<nav>\n"+links+"\n</nav>")
}

// SetGalleryList replaces the root document's page listing with links.
func SetGalleryList(doc, links string) (string, bool) {
	return replaceFirst(doc, galleryListPattern, "<div class=\"gallery-list\">\n"+links+"\n</div>")
}

// ClearGallery empties the photo container of a cloned page document.
func ClearGallery(doc string) (string, bool) {
	return replaceFirst(doc, galleryPattern, `<div class="gallery" id="gallery"></div>`)
}

// SetSubtitle replaces the text of the first paragraph inside the header.
func SetSubtitle(doc, subtitle string) (string, bool) {
	hdr := headerPattern.FindStringIndex(doc)
	if hdr == nil {
		return doc, false
	}
	block, ok := replaceInner(doc[hdr[0]:hdr[1]], paragraphPattern, html.EscapeString(subtitle))
	if !ok {
		return doc, false
	}
	return doc[:hdr[0]] + block + doc[hdr[1]:], true
}

// SetFooter replaces the footer text.
func SetFooter(doc, footer string) (string, bool) {
	return replaceInner(doc, footerPattern, html.EscapeString(footer))
}

// RootNavLinks renders one link per page for the root document.
func RootNavLinks(site *manifest.Site) string {
	lines := make([]string, 0, len(site.Pages))
	for _, p := range site.Pages {
		lines = append(lines, `  <a href="`+attr(p.Dir)+`/">`+html.EscapeString(p.Name)+`</a>`)
	}
	return strings.Join(lines, "\n")
}

// PageNavLinks renders a Home link followed by one link per page, marking activeID.
func PageNavLinks(site *manifest.Site, activeID string) string {
	lines := make([]string, 0, len(site.Pages)+1)
	lines = append(lines, `  <a href="../">Home</a>`)
	for _, p := range site.Pages {
		active := ""
		if p.ID == activeID {
			active = ` class="active"`
		}
		lines = append(lines, `  <a href="../`+attr(p.Dir)+`/"`+active+`>`+html.EscapeString(p.Name)+`</a>`)
	}
	return strings.Join(lines, "\n")
}

// GalleryListLinks renders the root document's page listing.
func GalleryListLinks(site *manifest.Site) string {
	lines := make([]string, 0, len(site.Pages))
	for _, p := range site.Pages {
		lines = append(lines, `  <a class="gallery-link" href="`+attr(p.Dir)+`/">`+html.EscapeString(p.Name)+`</a>`)
	}
	return strings.Join(lines, "\n")
}

// ProjectRoot rewrites the navigation and page listing of the root document.
func ProjectRoot(doc string, site *manifest.Site) string {
	doc, _ = SetNav(doc, RootNavLinks(site))
	doc, _ = SetGalleryList(doc, GalleryListLinks(site))
	return doc
}

// ProjectPage rewrites the title, heading and navigation of a page document.
func ProjectPage(doc string, site *manifest.Site, page *manifest.Page) string {
	doc, _ = SetTitle(doc, page.Name)
	doc, _ = SetHeading(doc, page.Name)
	doc, _ = SetNav(doc, PageNavLinks(site, page.ID))
	return doc
}

func attr(s string) string {
	return html.EscapeString(s)
}
