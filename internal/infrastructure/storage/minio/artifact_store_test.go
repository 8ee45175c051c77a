package minio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string][]byte)}
}

func (f *fakeObjectAPI) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeObjectAPI) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	return nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = data
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _, key string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Key: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestStore(api objectAPI) *ArtifactStore {
	return NewArtifactStoreWithAPI(api, "aivis-models", logging.NewNopLogger())
}

func sampleModel(version int) *credibility.Model {
	coeffs := make([]float64, credibility.FeatureCount)
	coeffs[0] = 0.4
	return &credibility.Model{
		Version:      version,
		Intercept:    10,
		Coefficients: coeffs,
		R2:           0.86,
		TestRMSE:     4.2,
		Confidence:   0.85,
	}
}

func TestSaveThenLoadCurrentRoundTrips(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleModel(3)))

	loaded, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Version)
	assert.InDelta(t, 0.86, loaded.R2, 1e-9)
	assert.Len(t, loaded.Coefficients, credibility.FeatureCount)

	// Versioned artifact and pointer both exist.
	assert.Contains(t, api.objects, "models/v3.json")
	assert.Contains(t, api.objects, "models/current.json")
}

func TestLoadCurrentBeforeAnyDeploy(t *testing.T) {
	store := newTestStore(newFakeObjectAPI())

	_, err := store.LoadCurrent(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotDeployed))
}

func TestSaveKeepsOlderVersionsReadable(t *testing.T) {
	store := newTestStore(newFakeObjectAPI())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleModel(1)))
	require.NoError(t, store.Save(ctx, sampleModel(2)))

	current, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)

	old, err := store.LoadVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, old.Version)
}

func TestLoadVersionMissing(t *testing.T) {
	store := newTestStore(newFakeObjectAPI())

	_, err := store.LoadVersion(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestCorruptArtifactSurfacesAsCorrupt(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleModel(1)))
	api.objects["models/v1.json"] = []byte("{not json")

	_, err := store.LoadCurrent(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelArtifactCorrupt))
}

func TestDanglingPointerSurfacesAsCorrupt(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleModel(1)))
	delete(api.objects, "models/v1.json")

	_, err := store.LoadCurrent(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelArtifactCorrupt))
}

func TestSaveRejectsNilModel(t *testing.T) {
	store := newTestStore(newFakeObjectAPI())

	err := store.Save(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelInputInvalid))
}
