package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/publish"
)

// PublishInput contains parameters for the Publish operation.
type PublishInput struct {
	Message string
}

// Publish stages, commits and pushes the gallery. A clean tree or an
// up-to-date remote is success.
func (s *Service) Publish(ctx context.Context, input PublishInput) (*publish.Result, error) {
	var out *publish.Result
	err := s.run(ctx, "publish", input.Message, func() error {
		if s.opts.Publisher == nil {
			return errors.NewInvalidRequest("publishing is not configured")
		}
		res, err := s.opts.Publisher.Publish(ctx, input.Message)
		if err != nil {
			return errors.NewPublishFailure(err)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
