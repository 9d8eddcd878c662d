package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*PresignedRequest, error)
	Delete(ctx context.Context, key string) error
}

// allowedTypes maps accepted image types to the file extension used in keys.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type MediaService struct {
	Store      ObjectStore
	PublicBase string
	MaxBytes   int64
	PresignTTL time.Duration
	Clock      clock.Clock
	Logger     *logger.Logger
}

func NewMediaService(store ObjectStore, publicBase string, maxBytes int64, presignTTL time.Duration, clk clock.Clock, log *logger.Logger) *MediaService {
	return &MediaService{
		Store:      store,
		PublicBase: strings.TrimRight(publicBase, "/"),
		MaxBytes:   maxBytes,
		PresignTTL: presignTTL,
		Clock:      clk,
		Logger:     log,
	}
}

func (s *MediaService) available() error {
	if s.Store == nil {
		return fmt.Errorf("%w: media uploads are not configured", models.ErrConflict)
	}
	return nil
}

// PresignUpload validates an image upload and returns a signed PUT for it.
func (s *MediaService) PresignUpload(ctx context.Context, ownerID string, req models.UploadRequest) (*models.UploadTicket, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: content type %q is not an accepted image type", models.ErrUnsupportedMedia, req.ContentType)
	}
	switch req.Kind {
	case models.MediaKindEvent, models.MediaKindItem, models.MediaKindAvatar:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", models.ErrUnsupportedMedia, req.Kind)
	}
	if req.Size <= 0 || req.Size > s.MaxBytes {
		return nil, fmt.Errorf("%w: size must be between 1 and %d bytes", models.ErrUnsupportedMedia, s.MaxBytes)
	}

	key := fmt.Sprintf("%s/%s/%s.%s", req.Kind, ownerID, utils.NewID(), ext)
	signed, err := s.Store.PresignPut(ctx, key, contentType, req.Size, s.PresignTTL)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(signed.Headers))
	for name := range signed.Headers {
		if strings.EqualFold(name, "Host") {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = signed.Headers.Get(name)
	}

	s.Logger.Info("MEDIA", fmt.Sprintf("presigned %s upload %s for %s", req.Kind, key, ownerID))
	return &models.UploadTicket{
		UploadURL: signed.URL,
		Method:    signed.Method,
		Headers:   headers,
		Key:       key,
		PublicURL: s.PublicBase + "/" + key,
		ExpiresAt: s.Clock.Now().Add(s.PresignTTL),
	}, nil
}

// keyFromURL turns a public URL back into an object key, rejecting URLs
// outside the media base.
func (s *MediaService) keyFromURL(publicURL string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: invalid media url", models.ErrInvalidInput)
	}
	u.RawQuery, u.Fragment = "", ""
	prefix := s.PublicBase + "/"
	if !strings.HasPrefix(u.String(), prefix) {
		return "", fmt.Errorf("%w: url is not a campus media url", models.ErrInvalidInput)
	}
	key := strings.TrimPrefix(u.String(), prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: invalid media url", models.ErrInvalidInput)
	}
	return key, nil
}

// Delete removes an object the caller uploaded.
func (s *MediaService) Delete(ctx context.Context, ownerID, publicURL string) error {
	if err := s.available(); err != nil {
		return err
	}
	key, err := s.keyFromURL(publicURL)
	if err != nil {
		return err
	}

	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[1] != ownerID {
		s.Logger.LogSecurity("MEDIA_DELETE", fmt.Sprintf("user %s tried to delete %s", ownerID, key))
		return models.ErrNotOwner
	}
	switch models.MediaKind(parts[0]) {
	case models.MediaKindEvent, models.MediaKindItem, models.MediaKindAvatar:
	default:
		return models.ErrNotOwner
	}

	if err := s.Store.Delete(ctx, key); err != nil {
		return err
	}
	s.Logger.Info("MEDIA", fmt.Sprintf("deleted %s", key))
	return nil
}
