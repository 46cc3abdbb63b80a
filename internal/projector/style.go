package projector

import (
	"regexp"
	"strconv"
)

// Style anchors. The body rule is a "body" selector at the start of the document
// or after whitespace, a closing brace or a tag.
var (
	bodyBackgroundPattern = regexp.MustCompile(`((?:^|[\s}>])body\s*\{[^}]*)background:\s*#[a-fA-F0-9]{3,6}`)
	bodyColorPattern      = regexp.MustCompile(`((?:^|[\s}>])body\s*\{[^}]*\b)color:\s*#[a-fA-F0-9]{3,6}`)
	bodyColorDeclPattern  = regexp.MustCompile(`(?:^|[\s}>])body\s*\{[^}]*\bcolor:\s*#[a-fA-F0-9]{3,6};`)
	bodySizePattern       = regexp.MustCompile(`((?:^|[\s}>])body\s*\{[^}]*)font-size:\s*[0-9.]+px`)
	titleSizePattern      = regexp.MustCompile(`(header h1\s*\{[^}]*)font-size:\s*[0-9.]+rem`)
	sansFamilyPattern     = regexp.MustCompile(`font-family:\s*'[^']+',\s*sans-serif`)
	serifFamilyPattern    = regexp.MustCompile(`font-family:\s*'[^']+',\s*serif`)
	fontsURLPattern       = regexp.MustCompile(`https://fonts\.googleapis\.com/css2\?[^"]+`)

	bodyBackgroundValue = regexp.MustCompile(`(?:^|[\s}>])body\s*\{[^}]*background:\s*(#[a-fA-F0-9]{3,6})`)
	bodyColorValue      = regexp.MustCompile(`(?:^|[\s}>])body\s*\{[^}]*\bcolor:\s*(#[a-fA-F0-9]{3,6})`)
	bodyFontValue       = regexp.MustCompile(`(?:^|[\s}>])body\s*\{[^}]*font-family:\s*'([^']+)'`)
	titleFontValue      = regexp.MustCompile(`header h1\s*\{[^}]*font-family:\s*'([^']+)'`)
	titleSizeValue      = regexp.MustCompile(`header h1\s*\{[^}]*font-size:\s*([0-9.]+)rem`)
	bodySizeValue       = regexp.MustCompile(`(?:^|[\s}>])body\s*\{[^}]*font-size:\s*([0-9.]+)px`)
)

// replaceAfterPrefix swaps the part of the first match of re that follows submatch group 1.
func replaceAfterPrefix(doc string, re *regexp.Regexp, repl string) (string, bool) {
	loc := re.FindStringSubmatchIndex(doc)
	if loc == nil {
		return doc, false
	}
	return doc[:loc[3]] + repl + doc[loc[1]:], true
}

func firstGroup(doc string, re *regexp.Regexp) (string, bool) {
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SetBodyBackground rewrites the background color of the body rule.
func SetBodyBackground(doc, hex string) (string, bool) {
	return replaceAfterPrefix(doc, bodyBackgroundPattern, "background: "+hex)
}

// SetBodyColor rewrites the text color of the body rule.
func SetBodyColor(doc, hex string) (string, bool) {
	return replaceAfterPrefix(doc, bodyColorPattern, "color: "+hex)
}

// SetFontFamilies rewrites every sans-serif declaration to bodyFont and every
// serif declaration to titleFont. Reports whether any declaration changed.
func SetFontFamilies(doc, titleFont, bodyFont string) (string, bool) {
	found := sansFamilyPattern.MatchString(doc) || serifFamilyPattern.MatchString(doc)
	doc = sansFamilyPattern.ReplaceAllLiteralString(doc, "font-family: '"+bodyFont+"', sans-serif")
	doc = serifFamilyPattern.ReplaceAllLiteralString(doc, "font-family: '"+titleFont+"', serif")
	return doc, found
}

// SetTitleSize rewrites the font size of the header h1 rule, in rem.
func SetTitleSize(doc string, rem float64) (string, bool) {
	return replaceAfterPrefix(doc, titleSizePattern, "font-size: "+strconv.FormatFloat(rem, 'f', -1, 64)+"rem")
}

// SetBodySize rewrites the font size of the body rule, in px. When the rule
// has no size, one is inserted after its color declaration.
func SetBodySize(doc string, px int) (string, bool) {
	size := strconv.Itoa(px) + "px"
	if out, ok := replaceAfterPrefix(doc, bodySizePattern, "font-size: "+size); ok {
		return out, true
	}
	loc := bodyColorDeclPattern.FindStringIndex(doc)
	if loc == nil {
		return doc, false
	}
	return doc[:loc[1]] + "\n      font-size: " + size + ";" + doc[loc[1]:], true
}

// SetFontsURL rewrites the web-font stylesheet URL.
func SetFontsURL(doc, url string) (string, bool) {
	return replaceFirst(doc, fontsURLPattern, url)
}

// StyleValues are the style settings found in a document. Fields are empty or
// zero when the document does not declare them.
type StyleValues struct {
	Background string
	Color      string
	TitleFont  string
	BodyFont   string
	TitleSize  float64
	BodySize   int
}

// ReadStyle extracts the style settings declared in doc.
func ReadStyle(doc string) StyleValues {
	var v StyleValues
	v.Background, _ = firstGroup(doc, bodyBackgroundValue)
	v.Color, _ = firstGroup(doc, bodyColorValue)
	v.BodyFont, _ = firstGroup(doc, bodyFontValue)
	v.TitleFont, _ = firstGroup(doc, titleFontValue)
	if s, ok := firstGroup(doc, titleSizeValue); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v.TitleSize = f
		}
	}
	if s, ok := firstGroup(doc, bodySizeValue); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v.BodySize = int(f)
		}
	}
	return v
}
