package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/store"
)

// GetContent returns the site model with zoom values merged from the label artifacts.
func (s *Service) GetContent(ctx context.Context) (*manifest.Site, error) {
	var site *manifest.Site
	err := s.view(func() error {
		var err error
		site, err = s.loadSite(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// SaveContentInput carries an edited site model.
type SaveContentInput struct {
	Pages []*manifest.Page `json:"pages"`
}

// SaveContentOutput contains the result of the SaveContent operation.
type SaveContentOutput struct {
	Pages         int `json:"pages"`
	Photos        int `json:"photos"`
	LabelsWritten int `json:"labels_written"`
	DocsWritten   int `json:"docs_written"`
}

// SaveContent replaces the names, photo lists and page order of existing pages.
//
// Every submitted page must already exist; pages are not created or deleted
// here. Pages left out of the submission keep their content and follow the
// submitted ones. Layouts cannot change. Zoom values are taken from the
// submission, with zero meaning 1.
func (s *Service) SaveContent(ctx context.Context, input SaveContentInput) (*SaveContentOutput, error) {
	var out *SaveContentOutput
	err := s.run(ctx, "content_save", "", func() error {
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(input.Pages))
		seen := make(map[string]bool, len(input.Pages))
		for _, submitted := range input.Pages {
			if submitted == nil {
				return errors.NewInvalidRequest("page entries must not be null")
			}
			if seen[submitted.ID] {
				return errors.NewInvalidRequest(fmt.Sprintf("page %q appears more than once", submitted.ID))
			}
			seen[submitted.ID] = true

			current, err := findPage(site, submitted.ID)
			if err != nil {
				return err
			}
			if err := applyPageEdit(current, submitted); err != nil {
				return err
			}
			ids = append(ids, submitted.ID)
		}
		site.Reorder(ids)

		if err := s.store.SaveSite(site); err != nil {
			return err
		}
		labelsWritten, docsWritten, err := s.syncAll(ctx, site)
		if err != nil {
			return err
		}

		out = &SaveContentOutput{Pages: len(site.Pages), LabelsWritten: labelsWritten, DocsWritten: docsWritten}
		for _, p := range site.Pages {
			out.Photos += len(p.Photos)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyPageEdit(current, submitted *manifest.Page) error {
	name := trimName(submitted.Name)
	if name == "" {
		return errors.NewInvalidRequest(fmt.Sprintf("page %q needs a name", current.ID))
	}

	photos := make([]*manifest.Photo, 0, len(submitted.Photos))
	files := make(map[string]bool, len(submitted.Photos))
	for _, ph := range submitted.Photos {
		if ph == nil {
			return errors.NewInvalidRequest("photo entries must not be null")
		}
		if err := store.ValidateFilename(ph.Filename); err != nil {
			return err
		}
		if files[ph.Filename] {
			return errors.NewInvalidRequest(fmt.Sprintf("photo %q appears more than once in page %q", ph.Filename, current.ID))
		}
		files[ph.Filename] = true

		edited := &manifest.Photo{Filename: ph.Filename, Zoom: ph.Zoom}
		if edited.Zoom == 0 {
			edited.Zoom = 1
		}
		if err := validateZoom(edited.Zoom); err != nil {
			return err
		}
		if current.Layout == manifest.LayoutSingle {
			edited.Title = ph.Title
			edited.Desc = ph.Desc
		} else {
			edited.Caption = ph.Caption
		}
		photos = append(photos, edited)
	}

	current.Name = name
	current.Photos = photos
	return nil
}

// RegenerateOutput contains the result of the Regenerate operation.
type RegenerateOutput struct {
	Pages         int `json:"pages"`
	LabelsWritten int `json:"labels_written"`
	DocsWritten   int `json:"docs_written"`
}

// Regenerate rebuilds every label artifact and document projection from the
// manifest. Run after the manifest is edited by hand.
func (s *Service) Regenerate(ctx context.Context) (*RegenerateOutput, error) {
	var out *RegenerateOutput
	err := s.run(ctx, "regenerate", "", func() error {
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		labelsWritten, docsWritten, err := s.syncAll(ctx, site)
		if err != nil {
			return err
		}
		out = &RegenerateOutput{Pages: len(site.Pages), LabelsWritten: labelsWritten, DocsWritten: docsWritten}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
