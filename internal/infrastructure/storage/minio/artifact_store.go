// Package minio persists credibility model artifacts in object storage.
// Each trained model lands under a versioned key; a current pointer object
// names the deployed version so rollback is a one-object write.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

const (
	modelPrefix      = "models/"
	currentPointer   = "models/current.json"
	connectTimeout   = 10 * time.Second
	jsonContentType  = "application/json"
	noSuchKeyCode    = "NoSuchKey"
	noSuchBucketCode = "NoSuchBucket"
)

// objectAPI is the slice of the minio client the store needs.  GetObject
// returns a plain reader so tests can fake it.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// minioAdapter narrows *minio.Client to objectAPI.  Needed because
// GetObject's concrete return type (*minio.Object) does not satisfy the
// io.ReadCloser-returning signature directly.
type minioAdapter struct {
	c *minio.Client
}

func (a minioAdapter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.c.BucketExists(ctx, bucket)
}

func (a minioAdapter) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return a.c.MakeBucket(ctx, bucket, opts)
}

func (a minioAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.c.PutObject(ctx, bucket, key, r, size, opts)
}

func (a minioAdapter) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.c.GetObject(ctx, bucket, key, opts)
}

// currentRecord is the pointer object's payload.
type currentRecord struct {
	Version    int       `json:"version"`
	DeployedAt time.Time `json:"deployed_at"`
}

// ArtifactStore implements credibility.ArtifactStore over a single bucket.
type ArtifactStore struct {
	api    objectAPI
	bucket string
	log    logging.Logger
}

// NewArtifactStore connects, verifies reachability, and ensures the bucket
// exists.
func NewArtifactStore(cfg config.MinIOConfig, log logging.Logger) (*ArtifactStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "minio endpoint not configured")
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "aivis-models"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "creating minio client")
	}

	store := &ArtifactStore{
		api:    minioAdapter{c: client},
		bucket: bucket,
		log:    log.Named("artifacts"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("artifact store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", bucket))
	return store, nil
}

// NewArtifactStoreWithAPI injects an object API, for tests.
func NewArtifactStoreWithAPI(api objectAPI, bucket string, log logging.Logger) *ArtifactStore {
	return &ArtifactStore{api: api, bucket: bucket, log: log}
}

func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "checking artifact bucket")
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "creating artifact bucket")
	}
	s.log.Info("created artifact bucket", logging.String("bucket", s.bucket))
	return nil
}

// Save writes the versioned artifact first, then flips the current pointer.
// A crash between the two writes leaves the previous deployment intact.
func (s *ArtifactStore) Save(ctx context.Context, m *credibility.Model) error {
	if m == nil {
		return errors.New(errors.ErrCodeModelInputInvalid, "nil model artifact")
	}

	if err := s.putJSON(ctx, versionKey(m.Version), m); err != nil {
		return err
	}
	record := currentRecord{Version: m.Version, DeployedAt: time.Now().UTC()}
	if err := s.putJSON(ctx, currentPointer, record); err != nil {
		return err
	}

	s.log.Info("model artifact deployed",
		logging.Int("version", m.Version),
		logging.Float64("r2", m.R2))
	return nil
}

// LoadCurrent resolves the pointer and fetches the deployed artifact.
func (s *ArtifactStore) LoadCurrent(ctx context.Context) (*credibility.Model, error) {
	var record currentRecord
	if err := s.getJSON(ctx, currentPointer, &record); err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.ErrCodeModelNotDeployed, "no model artifact deployed")
		}
		return nil, err
	}

	var m credibility.Model
	if err := s.getJSON(ctx, versionKey(record.Version), &m); err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.ErrCodeModelArtifactCorrupt,
				"current pointer names a missing artifact").
				WithDetail(fmt.Sprintf("version %d", record.Version))
		}
		return nil, err
	}
	if m.Version != record.Version {
		return nil, errors.New(errors.ErrCodeModelArtifactCorrupt, "artifact version mismatch").
			WithDetail(fmt.Sprintf("pointer %d, artifact %d", record.Version, m.Version))
	}
	return &m, nil
}

// LoadVersion fetches one historical artifact.
func (s *ArtifactStore) LoadVersion(ctx context.Context, version int) (*credibility.Model, error) {
	var m credibility.Model
	if err := s.getJSON(ctx, versionKey(version), &m); err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "model artifact not found").
				WithDetail(fmt.Sprintf("version %d", version))
		}
		return nil, err
	}
	return &m, nil
}

func (s *ArtifactStore) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding artifact")
	}
	_, err = s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: jsonContentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing artifact object")
	}
	return nil
}

func (s *ArtifactStore) getJSON(ctx context.Context, key string, dest any) error {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "opening artifact object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; not-found surfaces here on first read.
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeModelArtifactCorrupt, "decoding artifact").
			WithDetail(key)
	}
	return nil
}

func versionKey(version int) string {
	return fmt.Sprintf("%sv%d.json", modelPrefix, version)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == noSuchKeyCode || resp.Code == noSuchBucketCode
}
