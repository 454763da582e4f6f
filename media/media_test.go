package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"masterboxer.com/project-instaclone/apperrors"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		name                 string
		width, height, limit int
		wantW, wantH         int
	}{
		{"wide", 1600, 400, 800, 800, 200},
		{"tall", 300, 1200, 800, 200, 800},
		{"small kept", 640, 480, 800, 640, 480},
		{"exact", 800, 800, 800, 800, 800},
		{"thin strip", 8000, 1, 800, 800, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitInside(tt.width, tt.height, tt.limit)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestTranscode_ResizesToJPEG(t *testing.T) {
	tr := Transcoder{MaxDimension: 800, Quality: 80}

	out, err := tr.Transcode(bytes.NewReader(pngBytes(t, 1600, 400)))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestTranscode_RejectsOversizedDimensions(t *testing.T) {
	tr := Transcoder{MaxDimension: 800, Quality: 80, MaxPixels: 1_000_000}

	// a mostly blank image compresses to a few KB whatever its size
	raw := pngBytes(t, 2000, 1000)
	require.Less(t, len(raw), 64<<10)

	_, err := tr.Transcode(bytes.NewReader(raw))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "Image dimensions are too large", apperrors.MessageOf(err))

	out, err := tr.Transcode(bytes.NewReader(pngBytes(t, 1000, 1000)))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTranscode_RejectsNonImage(t *testing.T) {
	tr := Transcoder{MaxDimension: 800, Quality: 80}

	_, err := tr.Transcode(strings.NewReader("definitely not an image"))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8000/uploads")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "posts/a.jpg", "image/jpeg", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/uploads/posts/a.jpg", url)

	got, err := os.ReadFile(filepath.Join(dir, "posts", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{s3: fake, bucket: "pics"}

	url, err := u.Upload(context.Background(), "posts/a.jpg", "image/jpeg", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://pics.s3.amazonaws.com/posts/a.jpg", url)
	assert.Equal(t, "posts/a.jpg", aws.StringValue(fake.input.Key))
	assert.Equal(t, int64(4), aws.Int64Value(fake.input.ContentLength))
	assert.Equal(t, "data", string(fake.body))
}

func TestGCSURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/pics/posts/a.jpg", gcsURL("pics", "posts/a.jpg"))
}

type recordingUploader struct {
	key         string
	contentType string
	size        int
}

func (r *recordingUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	r.key, r.contentType, r.size = key, contentType, len(data)
	return "https://cdn.example.com/" + key, nil
}

func TestImageService_Store(t *testing.T) {
	up := &recordingUploader{}
	svc := NewImageService(Transcoder{MaxDimension: 800, Quality: 80}, up)

	url, err := svc.Store(context.Background(), "posts", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.key, "posts/"))
	assert.True(t, strings.HasSuffix(up.key, ".jpg"))
	assert.Equal(t, "image/jpeg", up.contentType)
	assert.Positive(t, up.size)
	assert.Equal(t, "https://cdn.example.com/"+up.key, url)
}
