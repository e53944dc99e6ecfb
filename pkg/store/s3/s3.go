// Package s3 serves documents stored as objects in an S3 bucket.
//
// Object keys are store names below an optional key prefix. Directories are
// implied: listing uses a "/" delimiter so S3 returns the immediate
// subdirectories as common prefixes.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/gopherd/pkg/store"
)

// API is the subset of the S3 client the store calls. *s3.Client
// satisfies it.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3StoreConfig contains configuration for the S3 store.
type S3StoreConfig struct {
	// Client is the configured S3 client.
	Client API

	// Bucket is the S3 bucket name.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "gopher/" serves "gopher/docs/a.txt" as "docs/a.txt".
	KeyPrefix string
}

// S3Store implements store.Store over an S3 bucket.
type S3Store struct {
	client    API
	bucket    string
	keyPrefix string
}

var _ store.Store = (*S3Store)(nil)

// New creates an S3 store. The bucket must already exist; it is not
// checked here so that a server can start while the endpoint is briefly
// unreachable.
func New(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
	}, nil
}

func (s *S3Store) objectKey(name string) string {
	if name == "." {
		return s.keyPrefix
	}
	return s.keyPrefix + name
}

func (s *S3Store) dirPrefix(name string) string {
	if name == "." {
		return s.keyPrefix
	}
	return s.keyPrefix + name + "/"
}

func (s *S3Store) Stat(ctx context.Context, name string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return store.Entry{}, err
	}

	if name == "." {
		return store.Entry{Name: ".", Dir: true}, nil
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err == nil {
		return store.Entry{
			Name:    path.Base(name),
			Regular: true,
			Size:    aws.ToInt64(head.ContentLength),
			ModTime: aws.ToTime(head.LastModified),
		}, nil
	}
	if !isNotFound(err) {
		return store.Entry{}, &store.PathError{Op: "stat", Name: name, Err: fmt.Errorf("failed to head object: %w", err)}
	}

	list, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.dirPrefix(name)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return store.Entry{}, &store.PathError{Op: "stat", Name: name, Err: fmt.Errorf("failed to list objects: %w", err)}
	}
	if len(list.Contents) > 0 || len(list.CommonPrefixes) > 0 {
		return store.Entry{Name: path.Base(name), Dir: true}, nil
	}

	return store.Entry{}, &store.PathError{Op: "stat", Name: name, Err: store.ErrNotExist}
}

func (s *S3Store) ReadDir(ctx context.Context, name string) ([]store.Entry, error) {
	entry, err := s.Stat(ctx, name)
	if err != nil {
		return nil, err
	}

	name, _ = store.Clean(name)
	if !entry.Dir {
		return nil, &store.PathError{Op: "readdir", Name: name, Err: store.ErrNotDir}
	}

	prefix := s.dirPrefix(name)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []store.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &store.PathError{Op: "readdir", Name: name, Err: fmt.Errorf("failed to list objects: %w", err)}
		}

		for _, cp := range page.CommonPrefixes {
			child := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if child == "" {
				continue
			}
			entries = append(entries, store.Entry{Name: child, Dir: true})
		}

		for _, obj := range page.Contents {
			child := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Zero-length "dir/" marker objects some tools create.
			if child == "" {
				continue
			}
			entries = append(entries, store.Entry{
				Name:    child,
				Regular: true,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	return entries, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := store.Clean(name)
	if err != nil {
		return nil, err
	}
	if name == "." {
		return nil, &store.PathError{Op: "open", Name: name, Err: store.ErrIsDir}
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		if isNotFound(err) {
			if entry, statErr := s.Stat(ctx, name); statErr == nil && entry.Dir {
				return nil, &store.PathError{Op: "open", Name: name, Err: store.ErrIsDir}
			}
			return nil, &store.PathError{Op: "open", Name: name, Err: store.ErrNotExist}
		}
		return nil, &store.PathError{Op: "open", Name: name, Err: fmt.Errorf("failed to get object from S3: %w", err)}
	}

	return result.Body, nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *S3Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
