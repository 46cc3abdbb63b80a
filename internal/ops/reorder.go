package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/gallerist/internal/errors"
)

// ReorderInput contains parameters for the Reorder operation.
type ReorderInput struct {
	IDs []string
}

// ReorderOutput contains the result of the Reorder operation.
type ReorderOutput struct {
	Order []string `json:"order"`
}

// Reorder moves the named pages to the front of the site in the given order.
// Unknown ids are ignored; unnamed pages keep their relative order after the
// named ones. Navigation is rewritten everywhere.
func (s *Service) Reorder(ctx context.Context, input ReorderInput) (*ReorderOutput, error) {
	var out *ReorderOutput
	err := s.run(ctx, "reorder", strings.Join(input.IDs, ","), func() error {
		if input.IDs == nil {
			return errors.NewInvalidRequest("order is required")
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		site.Reorder(input.IDs)

		if err := s.store.SaveSite(site); err != nil {
			return err
		}
		if _, err := s.syncNav(ctx, site); err != nil {
			return err
		}

		out = &ReorderOutput{Order: make([]string, len(site.Pages))}
		for i, p := range site.Pages {
			out.Order[i] = p.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
