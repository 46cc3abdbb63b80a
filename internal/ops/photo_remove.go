package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/store"
)

// RemovePhotoInput contains parameters for the RemovePhoto operation.
type RemovePhotoInput struct {
	PageID   string
	Filename string
}

// RemovePhotoOutput contains the result of the RemovePhoto operation.
type RemovePhotoOutput struct {
	Removed  bool   `json:"removed"`
	PageID   string `json:"page"`
	Filename string `json:"filename"`
}

// RemovePhoto unlists a photo and deletes its file. The file goes only after
// the manifest stops referencing it. An orphan file that was never listed is
// still deleted.
func (s *Service) RemovePhoto(ctx context.Context, input RemovePhotoInput) (*RemovePhotoOutput, error) {
	err := s.run(ctx, "photo_remove", photoTarget(input.PageID, input.Filename), func() error {
		if err := store.ValidateFilename(input.Filename); err != nil {
			return err
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		page, err := findPage(site, input.PageID)
		if err != nil {
			return err
		}

		listed := page.RemovePhoto(input.Filename)
		if !listed && !s.store.PhotoExists(page.ID, input.Filename) {
			return errors.NewPhotoNotFound(page.ID, input.Filename)
		}
		if listed {
			if err := s.saveAndLabel(site, page); err != nil {
				return err
			}
		}
		return s.store.RemovePhoto(page.ID, input.Filename)
	})
	if err != nil {
		return nil, err
	}
	return &RemovePhotoOutput{Removed: true, PageID: input.PageID, Filename: input.Filename}, nil
}
