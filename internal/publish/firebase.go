package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	UsersCollection string `yaml:"users_collection"`
}

// Firebase owns one Firebase app and the clients built from it.
type Firebase struct {
	app       *firebase.App
	firestore *firestore.Client
	bucket    string
}

func NewFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("missing storage bucket")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		StorageBucket: cfg.Bucket,
		ProjectID:     cfg.ProjectID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	return &Firebase{app: app, bucket: cfg.Bucket}, nil
}

func (f *Firebase) BlobStore(ctx context.Context) (*FirebaseBlobStore, error) {
	sc, err := f.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	b, err := sc.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", f.bucket, err)
	}
	return &FirebaseBlobStore{bucket: b, name: f.bucket}, nil
}

func (f *Firebase) UserStore(ctx context.Context, collection string) (*FirestoreUserStore, error) {
	if f.firestore == nil {
		c, err := f.app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		f.firestore = c
	}
	return NewFirestoreUserStore(f.firestore, collection), nil
}

func (f *Firebase) Close() error {
	if f.firestore != nil {
		return f.firestore.Close()
	}
	return nil
}

// FirebaseBlobStore writes objects into the app's default bucket.
type FirebaseBlobStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewFirebaseBlobStore(bucket *storage.BucketHandle, name string) *FirebaseBlobStore {
	return &FirebaseBlobStore{bucket: bucket, name: name}
}

func (s *FirebaseBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return PublicURL(s.name, key), nil
}

// PublicURL is the storage.googleapis.com address of an object. The key
// does not change between uploads, so neither does the URL.
func PublicURL(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(parts, "/")
}

const DefaultUsersCollection = "users"

// FirestoreUserStore keeps image URLs on documents users/{userID}.
type FirestoreUserStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreUserStore(client *firestore.Client, collection string) *FirestoreUserStore {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	return &FirestoreUserStore{client: client, collection: collection}
}

// UpsertImageURL creates the document when it is missing and otherwise
// updates only image_url.
func (s *FirestoreUserStore) UpsertImageURL(ctx context.Context, userID, url string) error {
	ref := s.client.Collection(s.collection).Doc(userID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return tx.Create(ref, map[string]interface{}{ImageURLField: url})
		}
		if err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{{Path: ImageURLField, Value: url}})
	})
}
