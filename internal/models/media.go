package models

import "time"

type MediaKind string

const (
	MediaKindEvent  MediaKind = "event"
	MediaKindItem   MediaKind = "item"
	MediaKindAvatar MediaKind = "avatar"
)

type UploadRequest struct {
	Kind        MediaKind `json:"kind" validate:"required,oneof=event item avatar"`
	ContentType string    `json:"content_type" validate:"required"`
	Size        int64     `json:"size" validate:"required,gt=0"`
}

// UploadTicket tells the client where to PUT the file and where it will be
// served from afterwards.
type UploadTicket struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}
