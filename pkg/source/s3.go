package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// ObjectStore is the slice of the S3 API the provider calls. *s3.Client
// satisfies it.
type ObjectStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures an object-store provider.
type S3Config struct {
	// Client is the S3 client, or any fake implementing ObjectStore.
	Client ObjectStore

	// Bucket and Key locate the JSON array object.
	Bucket string
	Key    string

	// Interval between ETag checks. Zero disables polling.
	Interval time.Duration

	Logger *slog.Logger
}

// S3 polls one object. Polls head the object first and only fetch the
// body when the ETag moved.
type S3 struct {
	graph  *cell.Graph
	client ObjectStore
	bucket string
	key    string
	every  time.Duration
	logger *slog.Logger
	data   *cell.Cell[[]any]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	etag    string
}

// NewS3 fetches the object once and returns the provider.
func NewS3(g *cell.Graph, cfg S3Config) (*S3, error) {
	if cfg.Client == nil {
		return nil, diag.New("DDM043").
			WithDetail(fmt.Sprintf("s3://%s/%s: no object store client configured", cfg.Bucket, cfg.Key))
	}

	s := &S3{
		graph:  g,
		client: cfg.Client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
		every:  cfg.Interval,
		logger: orDefault(cfg.Logger),
	}

	items, err := s.fetch(context.Background())
	if err != nil {
		return nil, err
	}
	s.data = cell.New(g, items)
	return s, nil
}

func (s *S3) Cell() *cell.Cell[[]any] { return s.data }

// Start polls until ctx is cancelled or Stop is called.
func (s *S3) Start(ctx context.Context) error {
	if s.every <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// Stop ends the poll loop.
func (s *S3) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

// fetch downloads and decodes the object, recording its ETag.
func (s *S3) fetch(ctx context.Context) ([]any, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, diag.New("DDM043").
			WithDetail(fmt.Sprintf("s3://%s/%s", s.bucket, s.key)).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, diag.New("DDM043").
			WithDetail(fmt.Sprintf("s3://%s/%s", s.bucket, s.key)).
			Wrap(err)
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, diag.New("DDM044").
			WithDetail(fmt.Sprintf("s3://%s/%s", s.bucket, s.key)).
			Wrap(err)
	}

	s.mu.Lock()
	s.etag = aws.ToString(out.ETag)
	s.mu.Unlock()

	return items, nil
}

// check heads the object and refetches when the ETag moved. Failures
// keep the previous items.
func (s *S3) check(ctx context.Context) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.logger.Warn("source object poll failed, keeping previous items",
			"bucket", s.bucket, "key", s.key, "error", err)
		return
	}

	s.mu.Lock()
	same := aws.ToString(head.ETag) == s.etag
	s.mu.Unlock()
	if same {
		return
	}

	items, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("source object refetch failed, keeping previous items",
			"bucket", s.bucket, "key", s.key, "error", err)
		return
	}

	s.graph.Scheduler().Dispatch(func() {
		s.data.Set(items)
	})
}
