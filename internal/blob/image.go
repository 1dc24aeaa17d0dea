package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// ImageStore validates and downsizes uploaded images before handing them to
// a Store.
type ImageStore struct {
	store      Store
	maxW, maxH int
}

// NewImageStore wraps store; images larger than maxW×maxH are scaled down
// keeping their aspect ratio.
func NewImageStore(store Store, maxW, maxH int) *ImageStore {
	return &ImageStore{store: store, maxW: maxW, maxH: maxH}
}

// Save normalizes the upload and returns the stored path.
func (s *ImageStore) Save(ctx context.Context, up model.Upload) (string, error) {
	data, ext, err := s.normalize(up.Data)
	if err != nil {
		return "", err
	}
	return s.store.Put(ctx, ext, data)
}

// Delete removes a previously saved image.
func (s *ImageStore) Delete(ctx context.Context, p string) error {
	return s.store.Delete(ctx, p)
}

func (s *ImageStore) normalize(data []byte) ([]byte, string, error) {
	var (
		format imaging.Format
		ext    string
	)
	switch http.DetectContentType(data) {
	case "image/jpeg":
		format, ext = imaging.JPEG, ".jpg"
	case "image/png":
		format, ext = imaging.PNG, ".png"
	default:
		return nil, "", ErrNotImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := img.Bounds()
	if s.maxW > 0 && s.maxH > 0 && (b.Dx() > s.maxW || b.Dy() > s.maxH) {
		img = imaging.Fit(img, s.maxW, s.maxH, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), ext, nil
}
