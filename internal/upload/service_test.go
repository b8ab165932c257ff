package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/watermark"
	"github.com/luoxir/photo-store/internal/worker"
	"github.com/luoxir/photo-store/storage"
)

// stubStore 测试用的元数据桩
type stubStore struct {
	watermarks map[string]*metadata.AlbumWatermarkConfig
	operations []metadata.Operation
}

func (s *stubStore) GetAlbumWatermark(_ context.Context, albumID string) (*metadata.AlbumWatermarkConfig, error) {
	return s.watermarks[albumID], nil
}

func (s *stubStore) GetPhotosByIDs(_ context.Context, _ []string) ([]metadata.PhotoRecord, error) {
	return nil, nil
}

func (s *stubStore) RecordOperation(_ context.Context, op metadata.Operation) {
	s.operations = append(s.operations, op)
}

func (s *stubStore) IncrementDownloadCount(_ context.Context, _ []string) {}

func newTestService(t *testing.T, store metadata.Store) (*Service, storage.Provider) {
	t.Helper()
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	pool := worker.NewPool(2, 8)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewService(provider, store, pool), provider
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 140, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUpload_StoresFile(t *testing.T) {
	store := &stubStore{}
	svc, provider := newTestService(t, store)
	data := pngBytes(t, 64, 48)

	res, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/photo.png",
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1/photo.png", res.StoredPath)
	assert.Equal(t, int64(len(data)), res.SizeBytes)
	assert.False(t, res.UploadedAt.IsZero())

	key, err := storage.ParseKey(res.StoredPath)
	require.NoError(t, err)
	rc, err := provider.GetWithContext(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	stored := new(bytes.Buffer)
	_, err = stored.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, data, stored.Bytes())
}

func TestUpload_RecordsOperation(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store)

	_, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/photo.png",
		AlbumID:     "album-7",
		Body:        bytes.NewReader(pngBytes(t, 8, 8)),
	})
	require.NoError(t, err)
	require.Len(t, store.operations, 1)
	assert.Equal(t, "upload", store.operations[0].Action)
	assert.Equal(t, "user-1", store.operations[0].UserID)
	assert.Equal(t, "album-7", store.operations[0].AlbumID)
	assert.Equal(t, "photo.png", store.operations[0].Detail)
}

func TestUpload_AppliesAlbumWatermark(t *testing.T) {
	store := &stubStore{
		watermarks: map[string]*metadata.AlbumWatermarkConfig{
			"album-1": {
				AlbumID:      "album-1",
				Kind:         string(watermark.KindDynamicText),
				TemplateText: "{username}",
				Opacity:      0.8,
				Position:     string(watermark.PositionBottomRight),
			},
		},
	}
	svc, provider := newTestService(t, store)
	src := pngBytes(t, 128, 96)

	_, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/marked.png",
		AlbumID:     "album-1",
		Username:    "alice",
		Body:        bytes.NewReader(src),
	})
	require.NoError(t, err)

	key, err := storage.ParseKey("user-1/marked.png")
	require.NoError(t, err)
	rc, err := provider.GetWithContext(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	stored := new(bytes.Buffer)
	_, err = stored.ReadFrom(rc)
	require.NoError(t, err)
	// 合成后的字节与原图不同，但仍是同尺寸的有效 PNG
	assert.NotEqual(t, src, stored.Bytes())
	img, err := png.Decode(bytes.NewReader(stored.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 96, img.Bounds().Dy())
}

func TestUpload_InvalidPathRejected(t *testing.T) {
	svc, _ := newTestService(t, &stubStore{})

	_, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/../etc/passwd",
		Body:        bytes.NewReader(pngBytes(t, 8, 8)),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestUpload_NonImageRejected(t *testing.T) {
	svc, _ := newTestService(t, &stubStore{})

	_, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/notes.png",
		Body:        strings.NewReader("<html><body>not an image</body></html>"),
	})
	assert.ErrorIs(t, err, watermark.ErrImageDecode)
}

func TestUpload_SizeLimitEnforced(t *testing.T) {
	svc, _ := newTestService(t, &stubStore{})
	data := pngBytes(t, 64, 64)

	_, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/big.png",
		Body:        bytes.NewReader(data),
		MaxBytes:    int64(len(data) - 1),
	})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUpload_MissingWatermarkImageDegrades(t *testing.T) {
	store := &stubStore{
		watermarks: map[string]*metadata.AlbumWatermarkConfig{
			"album-1": {
				AlbumID:            "album-1",
				Kind:               string(watermark.KindStaticImage),
				WatermarkImagePath: "admin/missing-mark.png",
			},
		},
	}
	svc, _ := newTestService(t, store)
	src := pngBytes(t, 32, 32)

	res, err := svc.Upload(context.Background(), Request{
		LogicalPath: "user-1/plain.png",
		AlbumID:     "album-1",
		Body:        bytes.NewReader(src),
	})
	require.NoError(t, err)
	// 水印素材缺失时降级为无水印，原始字节原样存储
	assert.Equal(t, int64(len(src)), res.SizeBytes)
}
