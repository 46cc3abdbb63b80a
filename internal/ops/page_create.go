package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/projector"
	"github.com/hpungsan/gallerist/internal/store"
)

// CreatePageInput contains parameters for the CreatePage operation.
type CreatePageInput struct {
	Name   string
	Layout manifest.Layout // defaults to masonry
}

// CreatePageOutput contains the result of the CreatePage operation.
type CreatePageOutput struct {
	Page *manifest.Page `json:"page"`
}

// CreatePage adds an empty page at the end of the site. The id is derived
// from the name; an id already used by a page or directory is DUPLICATE_PAGE
// and leaves every file untouched. The page directory, photo directory, label
// artifact and document are created before the manifest is written, and are
// removed again if any step fails.
func (s *Service) CreatePage(ctx context.Context, input CreatePageInput) (*CreatePageOutput, error) {
	name := trimName(input.Name)
	id := manifest.Slug(name)

	var out *CreatePageOutput
	err := s.run(ctx, "page_create", id, func() error {
		if name == "" {
			return errors.NewInvalidRequest("name is required")
		}
		if id == "" {
			return errors.NewInvalidRequest(fmt.Sprintf("name %q has no letters or digits to form a page id", name))
		}
		if err := store.ValidateID(id); err != nil {
			return err
		}
		layout := input.Layout
		if layout == "" {
			layout = manifest.LayoutMasonry
		}
		if !layout.Valid() {
			return errors.NewInvalidRequest(fmt.Sprintf("layout must be %q or %q", manifest.LayoutMasonry, manifest.LayoutSingle))
		}

		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		if site.Page(id) != nil || s.store.PageDirExists(id) {
			return errors.NewDuplicatePage(id)
		}

		template, err := s.readTemplate(layout)
		if err != nil {
			return err
		}

		page := &manifest.Page{ID: id, Dir: id, Name: name, Layout: layout, Photos: []*manifest.Photo{}}
		site.Pages = append(site.Pages, page)

		committed := false
		defer func() {
			if !committed {
				if err := s.store.RemovePage(id); err != nil {
					logging.FromContext(ctx).Error().Err(err).Str("page", id).Msg("rollback failed")
				}
			}
		}()

		if err := s.store.CreatePageDirs(id); err != nil {
			return err
		}
		if _, err := s.store.WriteLabels(page); err != nil {
			return err
		}
		doc, _ := projector.ClearGallery(template)
		doc = projector.ProjectPage(doc, site, page)
		if err := s.store.WriteDocument(s.store.PageIndexPath(id), doc); err != nil {
			return err
		}
		if err := s.store.SaveSite(site); err != nil {
			return err
		}
		committed = true

		// The manifest is the source of truth from here on; a stale nav is
		// repaired by the next regenerate.
		if _, err := s.syncNav(ctx, site); err != nil {
			return err
		}

		out = &CreatePageOutput{Page: page}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readTemplate returns the document cloned for new pages of layout.
func (s *Service) readTemplate(layout manifest.Layout) (string, error) {
	tmplID := s.opts.Templates[layout]
	if tmplID == "" {
		return "", errors.NewInternal(fmt.Errorf("no template page configured for layout %q", layout))
	}
	doc, ok, err := s.store.ReadDocument(s.store.PageIndexPath(tmplID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewInternal(fmt.Errorf("template page %q has no %s", tmplID, store.IndexFile))
	}
	return doc, nil
}

func trimName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
