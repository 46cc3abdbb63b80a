package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/manifest"
)

// MaxZoom is the largest zoom a photo may carry.
const MaxZoom = 10

// UpdatePhotoInput contains parameters for the UpdatePhoto operation.
// Nil fields are left unchanged.
type UpdatePhotoInput struct {
	PageID   string
	Filename string
	Caption  *string
	Title    *string
	Desc     *string
	Zoom     *float64
}

// UpdatePhotoOutput contains the result of the UpdatePhoto operation.
type UpdatePhotoOutput struct {
	PageID string          `json:"page"`
	Photo  *manifest.Photo `json:"photo"`
}

// UpdatePhoto edits the labels and zoom of one photo. Caption applies to
// masonry pages; title and description apply to single pages.
func (s *Service) UpdatePhoto(ctx context.Context, input UpdatePhotoInput) (*UpdatePhotoOutput, error) {
	var out *UpdatePhotoOutput
	err := s.run(ctx, "photo_update", photoTarget(input.PageID, input.Filename), func() error {
		if input.Caption == nil && input.Title == nil && input.Desc == nil && input.Zoom == nil {
			return errors.NewInvalidRequest("nothing to update")
		}
		if input.Zoom != nil {
			if err := validateZoom(*input.Zoom); err != nil {
				return err
			}
		}

		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		page, err := findPage(site, input.PageID)
		if err != nil {
			return err
		}
		photo := page.Photo(input.Filename)
		if photo == nil {
			return errors.NewPhotoNotFound(page.ID, input.Filename)
		}

		switch page.Layout {
		case manifest.LayoutSingle:
			if input.Caption != nil {
				return errors.NewInvalidRequest(fmt.Sprintf("page %q uses title and description, not captions", page.ID))
			}
			if input.Title != nil {
				photo.Title = *input.Title
			}
			if input.Desc != nil {
				photo.Desc = *input.Desc
			}
		default:
			if input.Title != nil || input.Desc != nil {
				return errors.NewInvalidRequest(fmt.Sprintf("page %q uses captions, not title and description", page.ID))
			}
			if input.Caption != nil {
				photo.Caption = *input.Caption
			}
		}
		if input.Zoom != nil {
			photo.Zoom = *input.Zoom
		}

		if err := s.saveAndLabel(site, page); err != nil {
			return err
		}
		out = &UpdatePhotoOutput{PageID: page.ID, Photo: photo}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateZoom(z float64) error {
	if z <= 0 || z > MaxZoom {
		return errors.NewInvalidRequest(fmt.Sprintf("zoom must be greater than 0 and at most %d, got %g", MaxZoom, z))
	}
	return nil
}
