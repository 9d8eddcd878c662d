package media

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	presigned []string
	deleted   []string
	failWith  error
}

func (f *fakeStore) PresignPut(_ context.Context, key, contentType string, size int64, ttl time.Duration) (*PresignedRequest, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.presigned = append(f.presigned, key)
	h := http.Header{}
	h.Set("Host", "campus-media.s3.us-east-1.amazonaws.com")
	h.Set("content-type", contentType)
	return &PresignedRequest{URL: "https://signed.example/" + key, Method: http.MethodPut, Headers: h}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(store ObjectStore) *MediaService {
	return NewMediaService(store, "https://cdn.campus.test/", 10<<20, 15*time.Minute, clock.NewManual(testNow), logger.NewNop())
}

func TestPresignUpload(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	ticket, err := svc.PresignUpload(context.Background(), "alice", models.UploadRequest{
		Kind: models.MediaKindEvent, ContentType: "image/PNG", Size: 2048,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.Key, "event/alice/"))
	assert.True(t, strings.HasSuffix(ticket.Key, ".png"))
	assert.Equal(t, "https://cdn.campus.test/"+ticket.Key, ticket.PublicURL)
	assert.Equal(t, http.MethodPut, ticket.Method)
	assert.Equal(t, "image/png", ticket.Headers["Content-Type"])
	assert.NotContains(t, ticket.Headers, "Host")
	assert.Equal(t, testNow.Add(15*time.Minute), ticket.ExpiresAt)
	assert.Equal(t, []string{ticket.Key}, store.presigned)
}

func TestPresignUploadRejects(t *testing.T) {
	svc := newService(&fakeStore{})

	cases := map[string]models.UploadRequest{
		"pdf":       {Kind: models.MediaKindItem, ContentType: "application/pdf", Size: 10},
		"svg":       {Kind: models.MediaKindItem, ContentType: "image/svg+xml", Size: 10},
		"too large": {Kind: models.MediaKindItem, ContentType: "image/jpeg", Size: 10<<20 + 1},
		"empty":     {Kind: models.MediaKindItem, ContentType: "image/jpeg", Size: 0},
		"bad kind":  {Kind: "banner", ContentType: "image/jpeg", Size: 10},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PresignUpload(context.Background(), "alice", req)
			assert.ErrorIs(t, err, models.ErrUnsupportedMedia)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestPresignUploadStoreError(t *testing.T) {
	svc := newService(&fakeStore{failWith: errors.New("boom")})
	_, err := svc.PresignUpload(context.Background(), "alice", models.UploadRequest{
		Kind: models.MediaKindAvatar, ContentType: "image/webp", Size: 10,
	})
	assert.EqualError(t, err, "boom")
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "alice", "https://cdn.campus.test/item/alice/abc.jpg"))
	assert.Equal(t, []string{"item/alice/abc.jpg"}, store.deleted)

	err := svc.Delete(ctx, "bob", "https://cdn.campus.test/item/alice/abc.jpg")
	assert.ErrorIs(t, err, models.ErrNotOwner)

	err = svc.Delete(ctx, "alice", "https://elsewhere.test/item/alice/abc.jpg")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	err = svc.Delete(ctx, "alice", "https://cdn.campus.test/item/alice/../bob/x.jpg")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	err = svc.Delete(ctx, "alice", "not a url")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Len(t, store.deleted, 1)
}

func TestUnconfigured(t *testing.T) {
	svc := newService(nil)
	_, err := svc.PresignUpload(context.Background(), "alice", models.UploadRequest{
		Kind: models.MediaKindEvent, ContentType: "image/png", Size: 1,
	})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.ErrorIs(t, svc.Delete(context.Background(), "alice", "https://cdn.campus.test/event/alice/x.png"), models.ErrConflict)
}

func TestS3StoragePresignPut(t *testing.T) {
	cfg := aws.Config{
		Region: "eu-west-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	}
	store := NewS3StorageFromConfig(cfg, "campus-media")
	assert.Equal(t, "https://campus-media.s3.eu-west-1.amazonaws.com", store.BucketURL())

	req, err := store.PresignPut(context.Background(), "event/alice/x.png", "image/png", 512, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.URL, "campus-media")
	assert.Contains(t, req.URL, "event/alice/x.png")
	assert.Contains(t, req.URL, "X-Amz-Expires=600")
	assert.Equal(t, "image/png", req.Headers.Get("Content-Type"))
}
