package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/style"
)

// SettingsOutput carries the current style settings and the fonts that can be chosen.
type SettingsOutput struct {
	style.Settings
	TitleFonts []string `json:"titleFonts"`
	BodyFonts  []string `json:"bodyFonts"`
}

// GetSettings reads the style settings from the root document.
// A missing root document yields the defaults.
func (s *Service) GetSettings(ctx context.Context) (*SettingsOutput, error) {
	var out *SettingsOutput
	err := s.view(func() error {
		doc, _, err := s.store.ReadDocument(s.store.RootIndexPath())
		if err != nil {
			return err
		}
		out = &SettingsOutput{Settings: style.Extract(doc)}
		out.TitleFonts, out.BodyFonts = s.opts.Fonts.Names()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSettingsOutput contains the result of the SaveSettings operation.
type SaveSettingsOutput struct {
	Settings    style.Settings `json:"settings"`
	FontsURL    string         `json:"fontsUrl"`
	DocsWritten int            `json:"docs_written"`
}

// SaveSettings applies style settings to the root document and every page
// document. Fonts are resolved before anything is written, so an unknown font
// leaves every document untouched.
func (s *Service) SaveSettings(ctx context.Context, input style.Settings) (*SaveSettingsOutput, error) {
	var out *SaveSettingsOutput
	err := s.run(ctx, "settings_save", input.TitleFont+"/"+input.BodyFont, func() error {
		if err := style.Validate(input); err != nil {
			return err
		}
		url, err := s.opts.Fonts.FontsURL(input.TitleFont, input.BodyFont)
		if err != nil {
			return err
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}

		apply := func(doc string) string { return style.Apply(doc, input, url) }
		paths := []string{s.store.RootIndexPath()}
		for _, p := range site.Pages {
			paths = append(paths, s.store.PageIndexPath(p.ID))
		}

		out = &SaveSettingsOutput{Settings: input, FontsURL: url}
		for _, path := range paths {
			ok, err := s.rewrite(ctx, path, apply)
			if err != nil {
				return err
			}
			if ok {
				out.DocsWritten++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
