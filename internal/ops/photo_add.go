package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/store"
)

// AddPhotoInput contains parameters for the AddPhoto operation.
type AddPhotoInput struct {
	PageID   string
	Filename string
}

// AddPhotoOutput contains the result of the AddPhoto operation.
type AddPhotoOutput struct {
	Added bool            `json:"added"`
	Photo *manifest.Photo `json:"photo"`
}

// AddPhoto lists an already stored photo at the end of a page with default
// labels. A filename that is already listed is a no-op.
func (s *Service) AddPhoto(ctx context.Context, input AddPhotoInput) (*AddPhotoOutput, error) {
	var out *AddPhotoOutput
	err := s.run(ctx, "photo_add", photoTarget(input.PageID, input.Filename), func() error {
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

		added := page.AddPhoto(input.Filename)
		if added {
			if err := s.saveAndLabel(site, page); err != nil {
				return err
			}
		}
		out = &AddPhotoOutput{Added: added, Photo: page.Photo(input.Filename)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile is one uploaded image.
type UploadFile struct {
	Name string
	Data []byte
}

// UploadFailure reports a file that could not be added.
type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadPhotosInput contains parameters for the UploadPhotos operation.
type UploadPhotosInput struct {
	PageID string
	Files  []UploadFile
}

// UploadPhotosOutput contains the result of the UploadPhotos operation.
type UploadPhotosOutput struct {
	Added    []string        `json:"added"`
	Replaced []string        `json:"replaced"`
	Failed   []UploadFailure `json:"failed"`
}

// UploadPhotos normalizes each file to a bounded JPEG, stores it in the
// page's photo directory and lists it. A file that fails is reported and the
// rest continue; the operation fails only when no file was stored.
// Re-uploading a listed filename replaces the image, keeps its labels and is
// reported under Replaced. Two files of one batch that map to the same
// stored name keep the first; the second is reported as failed.
func (s *Service) UploadPhotos(ctx context.Context, input UploadPhotosInput) (*UploadPhotosOutput, error) {
	out := &UploadPhotosOutput{Added: []string{}, Replaced: []string{}, Failed: []UploadFailure{}}
	err := s.run(ctx, "photo_upload", input.PageID, func() error {
		if len(input.Files) == 0 {
			return errors.NewInvalidRequest("no files uploaded")
		}
		if s.opts.Images == nil {
			return errors.NewInternal(fmt.Errorf("no image processor configured"))
		}
		site, err := s.loadSite(ctx)
		if err != nil {
			return err
		}
		page, err := findPage(site, input.PageID)
		if err != nil {
			return err
		}

		logger := logging.FromContext(ctx)
		seen := make(map[string]bool, len(input.Files))
		for _, f := range input.Files {
			filename := jpegName(store.SanitizeFilename(f.Name))
			var err error
			if seen[filename] {
				err = fmt.Errorf("another file in this upload is also stored as %q", filename)
			} else {
				err = s.storeUpload(page.ID, filename, f.Data)
			}
			if err != nil {
				logger.Warn().Err(err).Str("page", page.ID).Str("file", f.Name).Msg("upload skipped")
				out.Failed = append(out.Failed, UploadFailure{Name: f.Name, Error: err.Error()})
				continue
			}
			seen[filename] = true
			if page.AddPhoto(filename) {
				out.Added = append(out.Added, filename)
			} else {
				out.Replaced = append(out.Replaced, filename)
			}
		}

		if len(seen) == 0 {
			return errors.NewInvalidRequest(fmt.Sprintf("none of the %d files could be added: %s",
				len(out.Failed), out.Failed[0].Error))
		}
		return s.saveAndLabel(site, page)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) storeUpload(pageID, filename string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("file is empty")
	}
	normalized, err := s.opts.Images.Normalize(data)
	if s.opts.Metrics != nil {
		s.opts.Metrics.IncPhoto("upload", err == nil)
	}
	if err != nil {
		return err
	}
	return s.store.WritePhoto(pageID, filename, normalized)
}

// jpegName gives name a .jpg extension unless it already has a JPEG one.
func jpegName(name string) string {
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return name
	}
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "unnamed"
	}
	return base + ".jpg"
}
