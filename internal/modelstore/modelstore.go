// Package modelstore resolves a model identity to a local model file,
// fetching gs:// objects into a local cache directory first.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ObjectOpener opens a remote object for reading. If no such object exists,
// Open should return an error for which errors.Is(err, os.ErrNotExist) is true.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// GCSOpener reads objects from Google Cloud Storage.
type GCSOpener struct {
	Options []option.ClientOption
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (o GCSOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	client, err := storage.NewClient(ctx, o.Options...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS storage client: %w", err)
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, os.ErrNotExist)
		}
		return nil, fmt.Errorf("opening object from GCS %q: %w", gcsScheme+bucket+"/"+object, err)
	}
	return &gcsReader{Reader: r, client: client}, nil
}

// Store resolves model identities.
type Store struct {
	// Dir receives downloaded models, laid out as Dir/bucket/object.
	Dir    string
	Opener ObjectOpener
	Logger *zap.Logger
}

// Resolve returns a local path for identity, which is either a file path or
// a gs://bucket/object URI. Downloaded models are reused on later calls.
func (s *Store) Resolve(ctx context.Context, identity string) (string, error) {
	if !strings.HasPrefix(identity, gcsScheme) {
		if _, err := os.Stat(identity); err != nil {
			return "", fmt.Errorf("model %s: %w", identity, err)
		}
		return identity, nil
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(identity, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", fmt.Errorf("invalid model URI %q", identity)
	}
	dest := filepath.Join(s.Dir, bucket, filepath.FromSlash(object))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if s.Opener == nil {
		return "", fmt.Errorf("no object opener configured for %s", identity)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating model cache directory: %w", err)
	}

	log.Info("downloading model", zap.String("source", identity), zap.String("destination", dest))
	startedAt := time.Now()

	r, err := s.Opener.Open(ctx, bucket, object)
	if err != nil {
		return "", err
	}
	defer r.Close()

	n, err := writeToFile(r, dest, log)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", identity, err)
	}

	log.Info("downloaded model", zap.String("source", identity), zap.Int64("bytes", n), zap.Duration("duration", time.Since(startedAt)))
	return dest, nil
}

func writeToFile(src io.Reader, destinationPath string, log *zap.Logger) (int64, error) {
	tempFile, err := os.CreateTemp(filepath.Dir(destinationPath), "download")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	shouldDeleteTempFile := true
	defer func() {
		if shouldDeleteTempFile {
			if err := os.Remove(tempFile.Name()); err != nil {
				log.Error("removing temp file", zap.String("path", tempFile.Name()), zap.Error(err))
			}
		}
	}()

	shouldCloseTempFile := true
	defer func() {
		if shouldCloseTempFile {
			if err := tempFile.Close(); err != nil {
				log.Error("closing temp file", zap.String("path", tempFile.Name()), zap.Error(err))
			}
		}
	}()

	n, err := io.Copy(tempFile, src)
	if err != nil {
		return n, fmt.Errorf("downloading from upstream source: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	shouldCloseTempFile = false

	if err := os.Rename(tempFile.Name(), destinationPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	shouldDeleteTempFile = false

	return n, nil
}
