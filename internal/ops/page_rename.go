package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/projector"
)

// RenamePageInput contains parameters for the RenamePage operation.
type RenamePageInput struct {
	ID   string
	Name string
}

// RenamePageOutput contains the result of the RenamePage operation.
type RenamePageOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RenamePage changes a page's display name. The id and directory stay the same.
func (s *Service) RenamePage(ctx context.Context, input RenamePageInput) (*RenamePageOutput, error) {
	name := trimName(input.Name)

	err := s.run(ctx, "page_rename", input.ID, func() error {
		if name == "" {
			return errors.NewInvalidRequest("name is required")
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		page, err := findPage(site, input.ID)
		if err != nil {
			return err
		}
		page.Name = name

		if err := s.store.SaveSite(site); err != nil {
			return err
		}
		if _, err := s.rewrite(ctx, s.store.PageIndexPath(page.ID), func(doc string) string {
			doc, _ = projector.SetTitle(doc, name)
			doc, _ = projector.SetHeading(doc, name)
			return doc
		}); err != nil {
			return err
		}
		_, err = s.syncNav(ctx, site)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RenamePageOutput{ID: input.ID, Name: name}, nil
}
