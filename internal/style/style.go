package style

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/projector"
)

// Defaults used when the root document does not declare a setting.
const (
	DefaultBackground = "#ffffff"
	DefaultText       = "#222222"
	DefaultTitleFont  = "Cormorant Garamond"
	DefaultBodyFont   = "Montserrat"
	DefaultTitleSize  = 3.0
	DefaultBodySize   = 14
)

// Settings is the site-wide visual configuration.
type Settings struct {
	BgColor   string   `json:"bgColor"`
	TextColor string   `json:"textColor"`
	TitleFont string   `json:"titleFont"`
	BodyFont  string   `json:"bodyFont"`
	TitleSize *float64 `json:"titleSize,omitempty"`
	BodySize  *int     `json:"bodySize,omitempty"`
}

// Extract reads the settings from the root document, filling in defaults for
// anything it does not declare. Extract never fails.
func Extract(doc string) Settings {
	v := projector.ReadStyle(doc)
	s := Settings{
		BgColor:   orDefault(v.Background, DefaultBackground),
		TextColor: orDefault(v.Color, DefaultText),
		TitleFont: orDefault(v.TitleFont, DefaultTitleFont),
		BodyFont:  orDefault(v.BodyFont, DefaultBodyFont),
	}
	titleSize := DefaultTitleSize
	if v.TitleSize > 0 {
		titleSize = v.TitleSize
	}
	bodySize := DefaultBodySize
	if v.BodySize > 0 {
		bodySize = v.BodySize
	}
	s.TitleSize = &titleSize
	s.BodySize = &bodySize
	return s
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks colors and sizes. Fonts are checked against a Catalog.
func Validate(s Settings) error {
	if !hexColor.MatchString(s.BgColor) {
		return errors.NewInvalidRequest(fmt.Sprintf("bgColor must be a hex color, got %q", s.BgColor))
	}
	if !hexColor.MatchString(s.TextColor) {
		return errors.NewInvalidRequest(fmt.Sprintf("textColor must be a hex color, got %q", s.TextColor))
	}
	if s.TitleSize != nil && (*s.TitleSize <= 0 || *s.TitleSize > 20) {
		return errors.NewInvalidRequest("titleSize must be between 0 and 20 rem")
	}
	if s.BodySize != nil && (*s.BodySize <= 0 || *s.BodySize > 72) {
		return errors.NewInvalidRequest("bodySize must be between 1 and 72 px")
	}
	return nil
}

// Apply rewrites the style fragments of doc to match s. fontsURL is the
// composed stylesheet URL for s's fonts. Sizes are left alone when nil.
func Apply(doc string, s Settings, fontsURL string) string {
	doc, _ = projector.SetFontsURL(doc, fontsURL)
	doc, _ = projector.SetBodyBackground(doc, s.BgColor)
	doc, _ = projector.SetBodyColor(doc, s.TextColor)
	doc, _ = projector.SetFontFamilies(doc, s.TitleFont, s.BodyFont)
	if s.TitleSize != nil {
		doc, _ = projector.SetTitleSize(doc, *s.TitleSize)
	}
	if s.BodySize != nil {
		doc, _ = projector.SetBodySize(doc, *s.BodySize)
	}
	return doc
}

// Catalog maps font names to web-font family parameters.
type Catalog struct {
	Title map[string]string
	Body  map[string]string
}

// DefaultCatalog returns the built-in font catalogs.
func DefaultCatalog() Catalog {
	return Catalog{
		Title: map[string]string{
			"Cormorant Garamond": "family=Cormorant+Garamond:ital,wght@0,300;0,400;1,300",
			"Playfair Display":   "family=Playfair+Display:ital,wght@0,400;0,700;1,400",
			"EB Garamond":        "family=EB+Garamond:ital,wght@0,400;1,400",
			"Lora":               "family=Lora:ital,wght@0,400;0,700;1,400",
		},
		Body: map[string]string{
			"Montserrat": "family=Montserrat:wght@300;400",
			"Lato":       "family=Lato:wght@300;400",
			"Open Sans":  "family=Open+Sans:wght@300;400",
			"Raleway":    "family=Raleway:wght@300;400",
		},
	}
}

// WithExtra returns a copy of c extended by the given entries.
func (c Catalog) WithExtra(title, body map[string]string) Catalog {
	out := Catalog{
		Title: make(map[string]string, len(c.Title)+len(title)),
		Body:  make(map[string]string, len(c.Body)+len(body)),
	}
	for k, v := range c.Title {
		out.Title[k] = v
	}
	for k, v := range title {
		out.Title[k] = v
	}
	for k, v := range c.Body {
		out.Body[k] = v
	}
	for k, v := range body {
		out.Body[k] = v
	}
	return out
}

// FontsURL composes the stylesheet URL for a title and body font.
// Returns UNKNOWN_FONT when either name is not in its catalog.
func (c Catalog) FontsURL(titleFont, bodyFont string) (string, error) {
	title, ok := c.Title[titleFont]
	if !ok {
		return "", errors.NewUnknownFont("title", titleFont)
	}
	body, ok := c.Body[bodyFont]
	if !ok {
		return "", errors.NewUnknownFont("body", bodyFont)
	}
	return "https://fonts.googleapis.com/css2?" + title + "&" + body + "&display=swap", nil
}

// Names lists the catalog's title and body font names, sorted.
func (c Catalog) Names() (title, body []string) {
	for k := range c.Title {
		title = append(title, k)
	}
	for k := range c.Body {
		body = append(body, k)
	}
	sort.Strings(title)
	sort.Strings(body)
	return title, body
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
