package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // register webp decoder for uploads
)

// ErrUnsupportedFormat is returned for inputs no registered decoder can read.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Config for photo processing.
type Config struct {
	MaxDimension int // bound on both sides (default 2000)
	Quality      int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config.
func DefaultConfig() Config {
	return Config{MaxDimension: 2000, Quality: 85}
}

// Processor normalizes uploads and rotates stored photos. Output is always JPEG.
type Processor struct {
	config Config

	// decodeHEIF reads HEIC/HEIF containers. libheif applies the container's
	// rotation and mirroring, so no EXIF pass follows.
	decodeHEIF func(io.Reader) (image.Image, error)
}

// NewProcessor creates a photo processor. Zero fields take their defaults.
func NewProcessor(config Config) *Processor {
	def := DefaultConfig()
	if config.MaxDimension <= 0 {
		config.MaxDimension = def.MaxDimension
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = def.Quality
	}
	return &Processor{config: config, decodeHEIF: heic.Decode}
}

// Normalize decodes src, applies its EXIF orientation, fits it inside the
// configured bound without enlarging, and re-encodes it as JPEG.
func (p *Processor) Normalize(src []byte) ([]byte, error) {
	img, err := p.decode(src)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > p.config.MaxDimension || b.Dy() > p.config.MaxDimension {
		img = imaging.Fit(img, p.config.MaxDimension, p.config.MaxDimension, imaging.Lanczos)
	}
	return p.encode(img)
}

// Rotate turns src by degrees, which must be 90 (clockwise) or -90
// (counter-clockwise), and re-encodes it as JPEG.
func (p *Processor) Rotate(src []byte, degrees int) ([]byte, error) {
	img, err := p.decode(src)
	if err != nil {
		return nil, err
	}

	switch degrees {
	case 90:
		img = imaging.Rotate270(img)
	case -90:
		img = imaging.Rotate90(img)
	default:
		return nil, fmt.Errorf("rotation must be 90 or -90 degrees, got %d", degrees)
	}
	return p.encode(img)
}

func (p *Processor) decode(src []byte) (image.Image, error) {
	if IsHEIF(src) {
		img, err := p.decodeHEIF(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("decode HEIC: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// IsHEIF reports whether src starts like an ISO base media file with a HEIC/HEIF brand.
func IsHEIF(src []byte) bool {
	if len(src) < 12 || string(src[4:8]) != "ftyp" {
		return false
	}
	switch string(src[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}
