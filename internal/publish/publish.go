// Package publish stores rendered prescription tables and links them to users.
package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

// Publisher is what the pipeline needs from storage.
type Publisher interface {
	// Store writes data under key, replacing any previous content, and returns
	// a durable URL for it.
	Store(ctx context.Context, data []byte, key string) (string, error)
	// RecordAssociation creates or updates the user's record so its image_url
	// is url. No other field is touched.
	RecordAssociation(ctx context.Context, userID, url string) error
}

// BlobStore persists bytes under a key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// UserStore upserts the image URL of a user record.
type UserStore interface {
	UpsertImageURL(ctx context.Context, userID, url string) error
}

const ImageURLField = "image_url"

var ErrInvalidUser = errors.New("invalid user id")

// Key is where a user's table lives: prescriptions/{userID}/prescription_table.png.
func Key(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return "prescriptions/" + userID + "/prescription_table.png", nil
}

type PublishError struct {
	Op  string
	Key string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Composite joins a BlobStore and a UserStore into a Publisher.
type Composite struct {
	Blobs  BlobStore
	Users  UserStore
	Logger zerolog.Logger
}

func (c *Composite) Store(ctx context.Context, data []byte, key string) (string, error) {
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	url, err := c.Blobs.Put(ctx, key, data, ct)
	if err != nil {
		return "", &PublishError{Op: "store", Key: key, Err: err}
	}
	c.Logger.Info().Str("key", key).Int("bytes", len(data)).Str("url", url).Msg("stored blob")
	return url, nil
}

func (c *Composite) RecordAssociation(ctx context.Context, userID, url string) error {
	if _, err := Key(userID); err != nil {
		return err
	}
	if err := c.Users.UpsertImageURL(ctx, userID, url); err != nil {
		return &PublishError{Op: "associate", Key: userID, Err: err}
	}
	c.Logger.Info().Str("user", userID).Msg("image URL saved")
	return nil
}

// NoopUserStore drops associations, for dry runs.
type NoopUserStore struct{}

func (NoopUserStore) UpsertImageURL(ctx context.Context, userID, url string) error { return nil }
