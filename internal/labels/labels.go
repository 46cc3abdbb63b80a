package labels

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/hpungsan/gallerist/internal/manifest"
)

// FileName is the label artifact inside each page directory.
const FileName = "labels.js"

// Generator renders label artifacts.
type Generator struct {
	// ManifestName is mentioned in the artifact header.
	ManifestName string
}

// Generate renders the label artifact of page with a default Generator.
func Generate(page *manifest.Page) string {
	return Generator{}.Generate(page)
}

// Generate renders the label artifact of page: a script declaring LABELS,
// one record per photo in display order. Zoom is written only when it
// differs from 1.
func (g Generator) Generate(page *manifest.Page) string {
	name := g.ManifestName
	if name == "" {
		name = "CONTENT.md"
	}

	var b strings.Builder
	b.WriteString("// Generated from " + name + ". Do not edit directly.\n")
	b.WriteString("// To update labels or order, use the admin console or edit " + name + ".\n\n")

	if len(page.Photos) == 0 {
		b.WriteString("const LABELS = [];\n")
		return b.String()
	}

	b.WriteString("const LABELS = [\n")
	for _, ph := range page.Photos {
		b.WriteString("  { filename: " + quote(ph.Filename))
		if page.Layout == manifest.LayoutSingle {
			b.WriteString(", title: " + quote(ph.Title))
			b.WriteString(", desc: " + quote(ph.Desc))
		} else {
			b.WriteString(", caption: " + quote(ph.Caption))
		}
		if ph.Zoom != 0 && ph.Zoom != 1 {
			b.WriteString(", zoom: " + strconv.FormatFloat(ph.Zoom, 'f', -1, 64))
		}
		b.WriteString(" },\n")
	}
	b.WriteString("];\n")
	return b.String()
}

var (
	filenameField = regexp.MustCompile(`\{\s*filename:\s*("(?:[^"\\]|\\.)*")`)
	zoomField     = regexp.MustCompile(`,\s*zoom:\s*([0-9]*\.?[0-9]+)\s*\},?\s*$`)
)

// Zooms reads the per-photo zoom values from an existing artifact.
// Records without a zoom, and unreadable records, are absent from the result.
func Zooms(artifact string) map[string]float64 {
	zooms := make(map[string]float64)
	for _, line := range strings.Split(artifact, "\n") {
		fm := filenameField.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		zm := zoomField.FindStringSubmatch(line)
		if zm == nil {
			continue
		}
		var filename string
		if err := json.Unmarshal([]byte(fm[1]), &filename); err != nil {
			continue
		}
		z, err := strconv.ParseFloat(zm[1], 64)
		if err != nil || z <= 0 {
			continue
		}
		zooms[filename] = z
	}
	return zooms
}

// MergeDerivedFields copies zoom values from an existing artifact onto the
// photos of page. Photos the artifact does not mention get zoom 1.
func MergeDerivedFields(page *manifest.Page, artifact string) {
	zooms := Zooms(artifact)
	for _, ph := range page.Photos {
		if z, ok := zooms[ph.Filename]; ok {
			ph.Zoom = z
		} else {
			ph.Zoom = 1
		}
	}
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
