package ops

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/projector"
)

// Home is the editable text of the root document.
type Home struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Footer   string `json:"footer"`
}

// GetHome reads the home heading, subtitle and footer from the root document.
func (s *Service) GetHome(ctx context.Context) (*Home, error) {
	var out *Home
	err := s.view(func() error {
		doc, ok, err := s.store.ReadDocument(s.store.RootIndexPath())
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewInvalidRequest("root document not found")
		}
		out, err = readHome(doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readHome(doc string) (*Home, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &Home{
		Title:    strings.TrimSpace(d.Find("h1").First().Text()),
		Subtitle: strings.TrimSpace(d.Find("header p").First().Text()),
		Footer:   strings.TrimSpace(d.Find("footer").First().Text()),
	}, nil
}

// SetHomeInput contains parameters for the SetHome operation.
// Nil fields are left unchanged.
type SetHomeInput struct {
	Title    *string
	Subtitle *string
	Footer   *string
}

// SetHome rewrites the home heading, subtitle and footer. The document
// <title> is left as it is.
func (s *Service) SetHome(ctx context.Context, input SetHomeInput) (*Home, error) {
	var out *Home
	err := s.run(ctx, "home_set", "", func() error {
		if input.Title == nil && input.Subtitle == nil && input.Footer == nil {
			return errors.NewInvalidRequest("nothing to update")
		}
		path := s.store.RootIndexPath()
		doc, ok, err := s.store.ReadDocument(path)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewInvalidRequest("root document not found")
		}

		updated := doc
		if input.Title != nil {
			updated, _ = projector.SetHeading(updated, *input.Title)
		}
		if input.Subtitle != nil {
			updated, _ = projector.SetSubtitle(updated, *input.Subtitle)
		}
		if input.Footer != nil {
			updated, _ = projector.SetFooter(updated, *input.Footer)
		}
		if updated != doc {
			if err := s.store.WriteDocument(path, updated); err != nil {
				return err
			}
		}
		out, err = readHome(updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
