// Package archives persists frame archives in object storage and exposes
// the per-user listing and deletion operations.
package archives

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/frameextractor/frameextractor/internal/common"
)

// Ext is the archive file extension, with dot.
const Ext = ".zip"

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store writes, lists, and deletes archives under `{username}/{file}` keys
// in a single bucket and renders deterministic public URLs.
type Store struct {
	client    S3API
	bucket    string
	publicURL string
}

func NewStore(client S3API, bucket, publicURL string) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// PublicURL renders `{publicBaseURL}/{bucket}/{key}`.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}

// Upload puts the file at filePath under key and returns the archive's
// public URL.
func (s *Store) Upload(ctx context.Context, key, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", storageErr("open upload source for", key, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", storageErr("put", key, err)
	}

	return s.PublicURL(key), nil
}

// List returns the public URLs of the user's archives, filtered to the
// username prefix and the archive extension, in ascending key order.
func (s *Store) List(ctx context.Context, username string) ([]string, error) {
	prefix := username + "/"

	var keys []string
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, storageErr("list", prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, Ext) {
				keys = append(keys, key)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}
	sort.Strings(keys)

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		urls = append(urls, s.PublicURL(key))
	}
	return urls, nil
}

// Delete removes `{username}/{filename}`. An absent key is reported as
// common.ErrNotFound, distinct from storage failures.
func (s *Store) Delete(ctx context.Context, username, filename string) error {
	key := path.Join(username, filename)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return common.ErrNotFound
		}
		return storageErr("head", key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storageErr("delete", key, err)
	}

	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", common.ErrStorage, op, key, err)
}
