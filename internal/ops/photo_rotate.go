package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/store"
)

// Rotation directions.
const (
	Clockwise        = "cw"
	CounterClockwise = "ccw"
)

// RotatePhotoInput contains parameters for the RotatePhoto operation.
type RotatePhotoInput struct {
	PageID    string
	Filename  string
	Direction string // "cw" or "ccw"; defaults to "cw"
}

// RotatePhotoOutput contains the result of the RotatePhoto operation.
type RotatePhotoOutput struct {
	PageID    string `json:"page"`
	Filename  string `json:"filename"`
	Direction string `json:"direction"`
}

// RotatePhoto turns a stored photo by a quarter turn and rewrites it in place.
// The manifest is not touched.
func (s *Service) RotatePhoto(ctx context.Context, input RotatePhotoInput) (*RotatePhotoOutput, error) {
	direction := input.Direction
	if direction == "" {
		direction = Clockwise
	}

	err := s.run(ctx, "photo_rotate", photoTarget(input.PageID, input.Filename), func() error {
		var degrees int
		switch direction {
		case Clockwise:
			degrees = 90
		case CounterClockwise:
			degrees = -90
		default:
			return errors.NewInvalidRequest(fmt.Sprintf("direction must be %q or %q, got %q", Clockwise, CounterClockwise, direction))
		}
		if err := store.ValidateID(input.PageID); err != nil {
			return err
		}
		if err := store.ValidateFilename(input.Filename); err != nil {
			return err
		}
		if s.opts.Images == nil {
			return errors.NewInternal(fmt.Errorf("no image processor configured"))
		}
		if !s.store.PageDirExists(input.PageID) {
			return errors.NewPageNotFound(input.PageID)
		}
		if !s.store.PhotoExists(input.PageID, input.Filename) {
			return errors.NewPhotoNotFound(input.PageID, input.Filename)
		}

		src, err := s.store.ReadPhoto(input.PageID, input.Filename)
		if err != nil {
			return err
		}
		rotated, err := s.opts.Images.Rotate(src, degrees)
		if s.opts.Metrics != nil {
			s.opts.Metrics.IncPhoto("rotate", err == nil)
		}
		if err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("rotate %s: %v", input.Filename, err))
		}
		return s.store.WritePhoto(input.PageID, input.Filename, rotated)
	})
	if err != nil {
		return nil, err
	}
	return &RotatePhotoOutput{PageID: input.PageID, Filename: input.Filename, Direction: direction}, nil
}
