package ops

import (
	"context"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/journal"
)

// History lists journal entries, newest first. Without a journal it is empty.
func (s *Service) History(ctx context.Context, input journal.ListInput) ([]journal.Entry, error) {
	if s.opts.Journal == nil {
		return []journal.Entry{}, nil
	}
	entries, err := s.opts.Journal.List(ctx, input)
	if err != nil {
		return nil, errors.From(err)
	}
	return entries, nil
}
