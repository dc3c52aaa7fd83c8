package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// RemoteBackend mirrors state.json/graph.json to a bucket, alongside the
// required local filesystem backend. It is optional: a repository with
// no remote configuration simply never constructs one.
//
// Description:
//
//	Every object key is prefixed with the configured prefix (keys are bare
//	when it is empty), so multiple repositories can share one bucket under
//	distinct prefixes. Reads and writes
//	are rate-limited to avoid a busy `watch` loop hammering the bucket on
//	every incremental rebuild.
//
// Thread Safety: Safe for concurrent use; the underlying *storage.Client
// is itself safe for concurrent use.
type RemoteBackend struct {
	client     *storage.Client
	clientOpts []option.ClientOption
	bucket     string
	prefix     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// RemoteOption configures a RemoteBackend.
type RemoteOption func(*RemoteBackend)

// WithRemoteLogger attaches a structured logger. Defaults to slog.Default().
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(rb *RemoteBackend) {
		if l != nil {
			rb.logger = l
		}
	}
}

// WithRateLimit overrides the default throttle of 2 requests/second,
// burst 4.
func WithRateLimit(requestsPerSecond float64, burst int) RemoteOption {
	return func(rb *RemoteBackend) {
		rb.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithCredentialsFile points the GCS client at a service-account key file
// instead of relying on application-default credentials.
func WithCredentialsFile(path string) RemoteOption {
	return func(rb *RemoteBackend) {
		rb.clientOpts = append(rb.clientOpts, option.WithCredentialsFile(path))
	}
}

// NewRemoteBackend constructs a RemoteBackend bound to bucket, storing
// every object under "<prefix>/state.json" and "<prefix>/graph.json".
func NewRemoteBackend(ctx context.Context, bucket, prefix string, opts ...RemoteOption) (*RemoteBackend, error) {
	rb := &RemoteBackend{
		bucket:  bucket,
		prefix:  prefix,
		limiter: rate.NewLimiter(2, 4),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(rb)
	}

	client, err := storage.NewClient(ctx, rb.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	rb.client = client
	return rb, nil
}

// Close releases the underlying GCS client.
func (rb *RemoteBackend) Close() error {
	return rb.client.Close()
}

func (rb *RemoteBackend) objectName(file string) string {
	if rb.prefix == "" {
		return file
	}
	return rb.prefix + "/" + file
}

// UploadState mirrors repoRoot's local state.json to the bucket.
func (rb *RemoteBackend) UploadState(ctx context.Context, repoRoot string) error {
	data, err := readLocal(statePath(repoRoot))
	if err != nil {
		return err
	}
	return rb.upload(ctx, "state.json", data)
}

// UploadGraph mirrors repoRoot's local graph.json to the bucket.
func (rb *RemoteBackend) UploadGraph(ctx context.Context, repoRoot string) error {
	data, err := readLocal(graphPath(repoRoot))
	if err != nil {
		return err
	}
	return rb.upload(ctx, "graph.json", data)
}

// DownloadState fetches state.json from the bucket, or returns (nil, nil)
// if the object does not exist, matching the "absent not error" local
// contract.
func (rb *RemoteBackend) DownloadState(ctx context.Context) (*State, error) {
	data, err := rb.download(ctx, "state.json")
	if err != nil || data == nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &s, nil
}

func (rb *RemoteBackend) upload(ctx context.Context, name string, data []byte) error {
	if err := rb.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	w := rb.client.Bucket(rb.bucket).Object(rb.objectName(name)).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", name, err)
	}
	rb.logger.Info("uploaded to remote backend", "object", rb.objectName(name), "bytes", len(data))
	return nil
}

func (rb *RemoteBackend) download(ctx context.Context, name string) ([]byte, error) {
	if err := rb.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	r, err := rb.client.Bucket(rb.bucket).Object(rb.objectName(name)).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, nil
		}
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", name, err)
	}
	return data, nil
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s for remote upload: %w", path, err)
	}
	return data, nil
}
