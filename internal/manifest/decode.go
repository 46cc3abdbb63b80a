package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hpungsan/gallerist/internal/errors"
)

// Diagnostic describes a piece of the manifest that was skipped while decoding.
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// sectionPattern matches a page heading such as "## Artwork Page (`artwork/`)".
// The directory token is the last one on the line, so a display name may
// itself contain "Page (`...`)". Groups: display name, directory.
var sectionPattern = regexp.MustCompile("^## (.+) Page \\(`([^`/]+)/?`\\)\\s*$")

// separatorPattern matches a markdown table separator row.
var separatorPattern = regexp.MustCompile(`^\|\s*:?-+`)

type decodeState int

const (
	seekingSection decodeState = iota
	seekingHeader
	seekingRows
)

type decoder struct {
	site  *Site
	diags []Diagnostic

	state     decodeState
	line      int
	sections  int
	pending   *Page
	startLine int
	separator bool
	ids       map[string]bool
	files     map[string]bool
}

// Decode parses manifest text into a Site, discarding diagnostics.
func Decode(text string) (*Site, error) {
	site, _, err := Parse(text)
	return site, err
}

// Parse parses manifest text into a Site.
//
// A page section is a heading line followed, before the next heading, by a
// table whose header starts with an "Order" column. A header containing a
// "Description" column marks a single-column page. Rows are read positionally
// while their first cell is a decimal integer; the Order value itself is
// ignored and list position becomes display order. Sections without a table
// are dropped with a diagnostic, as are repeated directories and repeated
// filenames within a page.
//
// Text with no page headings decodes to an empty Site. Text with headings of
// which none could be salvaged returns MALFORMED_MANIFEST.
func Parse(text string) (*Site, []Diagnostic, error) {
	d := &decoder{
		site: &Site{Pages: []*Page{}},
		ids:  make(map[string]bool),
	}

	for i, line := range strings.Split(text, "\n") {
		d.line = i + 1
		d.step(strings.TrimRight(line, "\r"))
	}
	d.finish()

	if d.sections > 0 && len(d.site.Pages) == 0 {
		return nil, d.diags, errors.NewMalformedManifest(
			fmt.Sprintf("found %d page headings but no readable tables", d.sections))
	}
	return d.site, d.diags, nil
}

func (d *decoder) step(line string) {
	switch d.state {
	case seekingSection:
		d.matchSection(line)

	case seekingHeader:
		if sectionPattern.MatchString(line) {
			d.warnf(d.startLine, "page %q has no table before the next heading", d.pending.ID)
			d.pending = nil
			d.state = seekingSection
			d.matchSection(line)
			return
		}
		if cells, ok := splitRow(line); ok && len(cells) > 0 && strings.EqualFold(cells[0], "Order") {
			d.pending.Layout = LayoutMasonry
			for _, c := range cells {
				if strings.EqualFold(c, "Description") {
					d.pending.Layout = LayoutSingle
				}
			}
			d.separator = true
			d.state = seekingRows
		}

	case seekingRows:
		if d.separator {
			d.separator = false
			if separatorPattern.MatchString(strings.TrimSpace(line)) {
				return
			}
		}
		cells, ok := splitRow(line)
		if !ok {
			d.closeSection()
			d.matchSection(line)
			return
		}
		if len(cells) == 0 || !isDecimal(cells[0]) {
			d.closeSection()
			return
		}
		d.addRow(cells)
	}
}

func (d *decoder) matchSection(line string) {
	m := sectionPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	d.sections++
	dir := strings.TrimSpace(m[2])
	if !usableDir(dir) {
		d.warnf(d.line, "page directory %q is not usable", dir)
		return
	}
	d.pending = &Page{
		ID:     dir,
		Dir:    dir,
		Name:   strings.TrimSpace(m[1]),
		Photos: []*Photo{},
	}
	d.startLine = d.line
	d.files = make(map[string]bool)
	d.state = seekingHeader
}

func (d *decoder) addRow(cells []string) {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	filename := cell(1)
	if filename == "" {
		d.warnf(d.line, "row without a filename in page %q", d.pending.ID)
		return
	}
	if d.files[filename] {
		d.warnf(d.line, "duplicate filename %q in page %q", filename, d.pending.ID)
		return
	}
	d.files[filename] = true

	ph := &Photo{Filename: filename, Zoom: 1}
	if d.pending.Layout == LayoutSingle {
		ph.Title = cell(2)
		ph.Desc = cell(3)
	} else {
		ph.Caption = cell(2)
	}
	d.pending.Photos = append(d.pending.Photos, ph)
}

func (d *decoder) closeSection() {
	p := d.pending
	d.pending = nil
	d.state = seekingSection
	if p == nil {
		return
	}
	if d.ids[p.ID] {
		d.warnf(d.startLine, "duplicate page directory %q", p.ID)
		return
	}
	d.ids[p.ID] = true
	d.site.Pages = append(d.site.Pages, p)
}

func (d *decoder) finish() {
	switch d.state {
	case seekingHeader:
		d.warnf(d.startLine, "page %q has no table", d.pending.ID)
		d.pending = nil
	case seekingRows:
		d.closeSection()
	}
}

func (d *decoder) warnf(line int, format string, args ...any) {
	d.diags = append(d.diags, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

// splitRow splits a table row into trimmed cells. Reports false if the line is not a row.
// Cells are split on unescaped pipes; "\|" inside a cell decodes to "|".
func splitRow(line string) ([]string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "|") {
		return nil, false
	}
	s = s[1:]
	if strings.HasSuffix(s, "|") && !strings.HasSuffix(s, `\|`) {
		s = s[:len(s)-1]
	}

	var cells []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '|' {
			b.WriteByte('|')
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(b.String()))
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	cells = append(cells, strings.TrimSpace(b.String()))
	return cells, true
}

// usableDir reports whether dir can name a page directory directly under the
// gallery root. Hidden names such as ".git" are refused.
func usableDir(dir string) bool {
	if dir == "" || strings.HasPrefix(dir, ".") || strings.ContainsAny(dir, `/\`) {
		return false
	}
	for _, r := range dir {
		if r < 32 || r == 127 {
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
