package export

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/worker"
	"github.com/luoxir/photo-store/storage"
)

type stubStore struct {
	photos     map[string]metadata.PhotoRecord
	watermarks map[string]*metadata.AlbumWatermarkConfig
	operations []metadata.Operation
	counted    []string
}

func (s *stubStore) GetAlbumWatermark(_ context.Context, albumID string) (*metadata.AlbumWatermarkConfig, error) {
	return s.watermarks[albumID], nil
}

func (s *stubStore) GetPhotosByIDs(_ context.Context, ids []string) ([]metadata.PhotoRecord, error) {
	var out []metadata.PhotoRecord
	for _, id := range ids {
		if rec, ok := s.photos[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubStore) RecordOperation(_ context.Context, op metadata.Operation) {
	s.operations = append(s.operations, op)
}

func (s *stubStore) IncrementDownloadCount(_ context.Context, ids []string) {
	s.counted = append(s.counted, ids...)
}

func newTestService(t *testing.T, store metadata.Store) (*Service, storage.Provider) {
	t.Helper()
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	pool := worker.NewPool(2, 8)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewService(provider, store, pool), provider
}

func putBlob(t *testing.T, provider storage.Provider, logicalPath string, data []byte) {
	t.Helper()
	key, err := storage.ParseKey(logicalPath)
	require.NoError(t, err)
	require.NoError(t, provider.SaveWithContext(context.Background(), key, bytes.NewReader(data)))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func readZipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = buf.Bytes()
	}
	return entries
}

func TestExportZip_BundlesResolvedPhotos(t *testing.T) {
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/a.png"},
		"p2": {ID: "p2", BlobPath: "user-1/b.png"},
	}}
	svc, provider := newTestService(t, store)
	dataA := pngBytes(t, 16, 16)
	dataB := pngBytes(t, 24, 24)
	putBlob(t, provider, "user-1/a.png", dataA)
	putBlob(t, provider, "user-1/b.png", dataB)

	var buf bytes.Buffer
	summary, err := svc.ExportZip(context.Background(), &buf, Request{PhotoIDs: []string{"p1", "p2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Exported)
	assert.Equal(t, 0, summary.Skipped)

	entries := readZipEntries(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, dataA, entries["a.png"])
	assert.Equal(t, dataB, entries["b.png"])
}

func TestExportZip_SkipsMissingRecordsAndBlobs(t *testing.T) {
	// 三个 ID：一个无元数据记录，一个记录存在但文件缺失，一个完整
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/gone.png"},
		"p2": {ID: "p2", BlobPath: "user-1/ok.png"},
	}}
	svc, provider := newTestService(t, store)
	data := pngBytes(t, 16, 16)
	putBlob(t, provider, "user-1/ok.png", data)

	var buf bytes.Buffer
	summary, err := svc.ExportZip(context.Background(), &buf, Request{PhotoIDs: []string{"p0", "p1", "p2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Exported)
	assert.Equal(t, 2, summary.Skipped)

	entries := readZipEntries(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, data, entries["ok.png"])
}

func TestExportZip_DeduplicatesEntryNames(t *testing.T) {
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/photo.png"},
		"p2": {ID: "p2", BlobPath: "user-2/photo.png"},
		"p3": {ID: "p3", BlobPath: "user-3/photo.png"},
	}}
	svc, provider := newTestService(t, store)
	putBlob(t, provider, "user-1/photo.png", pngBytes(t, 8, 8))
	putBlob(t, provider, "user-2/photo.png", pngBytes(t, 8, 8))
	putBlob(t, provider, "user-3/photo.png", pngBytes(t, 8, 8))

	var buf bytes.Buffer
	summary, err := svc.ExportZip(context.Background(), &buf, Request{PhotoIDs: []string{"p1", "p2", "p3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Exported)

	entries := readZipEntries(t, buf.Bytes())
	assert.Contains(t, entries, "photo.png")
	assert.Contains(t, entries, "photo (1).png")
	assert.Contains(t, entries, "photo (2).png")
}

func TestExportZip_UpdatesCountersAndLog(t *testing.T) {
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/a.png"},
		"p2": {ID: "p2", BlobPath: "user-1/b.png"},
	}}
	svc, provider := newTestService(t, store)
	putBlob(t, provider, "user-1/a.png", pngBytes(t, 8, 8))
	putBlob(t, provider, "user-1/b.png", pngBytes(t, 8, 8))

	var buf bytes.Buffer
	_, err := svc.ExportZip(context.Background(), &buf, Request{PhotoIDs: []string{"p1", "p2"}, UserID: "u-9"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, store.counted)
	require.Len(t, store.operations, 2)
	for i, op := range store.operations {
		assert.Equal(t, "download", op.Action)
		assert.Equal(t, "u-9", op.UserID)
		assert.Equal(t, []string{"p1", "p2"}[i], op.PhotoID)
	}
}

func TestExportZip_AppliesRequestWatermark(t *testing.T) {
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/a.png"},
	}}
	svc, provider := newTestService(t, store)
	src := pngBytes(t, 128, 96)
	putBlob(t, provider, "user-1/a.png", src)

	var buf bytes.Buffer
	summary, err := svc.ExportZip(context.Background(), &buf, Request{
		PhotoIDs:          []string{"p1"},
		Username:          "bob",
		WatermarkKind:     "dynamic_text",
		WatermarkTemplate: "{username} {datetime}",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Exported)

	entries := readZipEntries(t, buf.Bytes())
	require.Len(t, entries, 1)
	// 条目是合成后的图像，与原始字节不同但仍可解码且尺寸一致
	assert.NotEqual(t, src, entries["a.png"])
	img, err := png.Decode(bytes.NewReader(entries["a.png"]))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 96, img.Bounds().Dy())
}

func TestExportZip_NoEntriesNoSideEffects(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store)

	var buf bytes.Buffer
	summary, err := svc.ExportZip(context.Background(), &buf, Request{PhotoIDs: []string{"missing"}})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Exported)
	assert.Empty(t, store.counted)
	assert.Empty(t, store.operations)

	// 空结果仍是合法的 ZIP 流
	entries := readZipEntries(t, buf.Bytes())
	assert.Empty(t, entries)
}

func TestExportZip_CanceledContextAborts(t *testing.T) {
	store := &stubStore{photos: map[string]metadata.PhotoRecord{
		"p1": {ID: "p1", BlobPath: "user-1/a.png"},
	}}
	svc, provider := newTestService(t, store)
	putBlob(t, provider, "user-1/a.png", pngBytes(t, 8, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := svc.ExportZip(ctx, &buf, Request{PhotoIDs: []string{"p1"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.counted)
}
