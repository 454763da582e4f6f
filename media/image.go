package media

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"path"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"masterboxer.com/project-instaclone/apperrors"
)

// DefaultMaxPixels bounds the decoded size when MaxPixels is unset
const DefaultMaxPixels = 40_000_000

// Transcoder fits images inside a MaxDimension square and re-encodes them
// as JPEG. Smaller images keep their size. Images with more than MaxPixels
// pixels are rejected from their header, before any pixel data is decoded.
type Transcoder struct {
	MaxDimension int
	Quality      int
	MaxPixels    int64
}

func (t Transcoder) Transcode(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Internal("failed to read image", err)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "Unsupported image format", err)
	}
	limit := t.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(header.Width)*int64(header.Height) > limit {
		return nil, apperrors.Validation("Image dimensions are too large")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "Unsupported image format", err)
	}

	bounds := src.Bounds()
	width, height := fitInside(bounds.Dx(), bounds.Dy(), t.MaxDimension)

	// JPEG has no alpha, flatten onto white
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.Quality}); err != nil {
		return nil, apperrors.Internal("failed to encode image", err)
	}
	return buf.Bytes(), nil
}

func fitInside(width, height, limit int) (int, int) {
	if limit <= 0 || (width <= limit && height <= limit) {
		return width, height
	}
	scale := math.Min(float64(limit)/float64(width), float64(limit)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// ImageService transcodes an upload and stores it under prefix
type ImageService struct {
	transcoder Transcoder
	uploader   Uploader
}

func NewImageService(t Transcoder, u Uploader) *ImageService {
	return &ImageService{transcoder: t, uploader: u}
}

func (s *ImageService) Store(ctx context.Context, prefix string, r io.Reader) (string, error) {
	data, err := s.transcoder.Transcode(r)
	if err != nil {
		return "", err
	}

	key := path.Join(prefix, uuid.NewString()+".jpg")
	url, err := s.uploader.Upload(ctx, key, "image/jpeg", bytes.NewReader(data))
	if err != nil {
		return "", apperrors.Internal("failed to upload image", err)
	}
	return url, nil
}
