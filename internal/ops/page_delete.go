package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/store"
)

// DeletePageInput contains parameters for the DeletePage operation.
type DeletePageInput struct {
	ID string
}

// DeletePageOutput contains the result of the DeletePage operation.
type DeletePageOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeletePage removes a page from the manifest, drops it from every
// navigation block and deletes its directory with all photos.
func (s *Service) DeletePage(ctx context.Context, input DeletePageInput) (*DeletePageOutput, error) {
	err := s.run(ctx, "page_delete", input.ID, func() error {
		if input.ID == "" {
			return errors.NewInvalidRequest("id is required")
		}
		if err := store.ValidateID(input.ID); err != nil {
			return err
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		if !site.Remove(input.ID) {
			return errors.NewPageNotFound(input.ID)
		}

		if err := s.store.SaveSite(site); err != nil {
			return err
		}
		if _, err := s.syncNav(ctx, site); err != nil {
			return err
		}
		return s.store.RemovePage(input.ID)
	})
	if err != nil {
		return nil, err
	}
	return &DeletePageOutput{Deleted: true, ID: input.ID}, nil
}
