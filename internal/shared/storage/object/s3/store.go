package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"dms-backend/internal/shared/storage/object"
)

// Store implements object.Store using Amazon S3.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, region, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}, nil
}

// List returns up to max objects under prefix, oldest first.
func (s *Store) List(ctx context.Context, prefix string, max int) ([]object.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 100
	}

	fullPrefix := applyPrefix(s.prefix, strings.TrimSuffix(prefix, "/") + "/")
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(fullPrefix),
		MaxKeys: aws.Int32(int32(max)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 list bucket=%s prefix=%s: %w", s.bucket, fullPrefix, err)
	}

	infos := make([]object.Info, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") {
			continue // folder markers
		}
		info := object.Info{
			Key:       stripPrefix(s.prefix, key),
			SizeBytes: aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified.Before(infos[j].LastModified)
	})
	return infos, nil
}

// Stat returns object metadata including its tags.
func (s *Store) Stat(ctx context.Context, key string) (object.Info, error) {
	if err := ctx.Err(); err != nil {
		return object.Info{}, err
	}

	objectKey := applyPrefix(s.prefix, key)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return object.Info{}, object.ErrNotFound
		}
		return object.Info{}, fmt.Errorf("s3 head bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}

	tags, err := s.objectTags(ctx, objectKey)
	if err != nil {
		return object.Info{}, err
	}

	info := object.Info{
		Key:         key,
		SizeBytes:   aws.ToInt64(head.ContentLength),
		ContentType: aws.ToString(head.ContentType),
		Tags:        tags,
	}
	if head.LastModified != nil {
		info.LastModified = *head.LastModified
	}
	return info, nil
}

// Get fetches the full object body along with its metadata.
func (s *Store) Get(ctx context.Context, key string) ([]byte, object.Info, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, object.Info{}, err
	}

	objectKey := applyPrefix(s.prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, object.Info{}, object.ErrNotFound
		}
		return nil, object.Info{}, fmt.Errorf("s3 get bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, object.Info{}, fmt.Errorf("s3 read bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return data, info, nil
}

// Put stores the reader contents under key with the given tags.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader, tags map[string]string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	objectKey := applyPrefix(s.prefix, key)
	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(objectKey),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	}
	if len(tags) > 0 {
		input.Tagging = aws.String(encodeTags(tags))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("s3 put bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return int64(len(data)), nil
}

// Copy duplicates srcKey to dstKey, replacing the destination's tags.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string, tags map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcObjectKey := applyPrefix(s.prefix, srcKey)
	dstObjectKey := applyPrefix(s.prefix, dstKey)
	input := &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		CopySource:        aws.String(url.PathEscape(s.bucket + "/" + srcObjectKey)),
		Key:               aws.String(dstObjectKey),
		TaggingDirective:  s3types.TaggingDirectiveReplace,
		MetadataDirective: s3types.MetadataDirectiveCopy,
	}
	if len(tags) > 0 {
		input.Tagging = aws.String(encodeTags(tags))
	}

	if _, err := s.client.CopyObject(ctx, input); err != nil {
		if isNotFound(err) {
			return object.ErrNotFound
		}
		return fmt.Errorf("s3 copy bucket=%s src=%s dst=%s: %w", s.bucket, srcObjectKey, dstObjectKey, err)
	}
	return nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	objectKey := applyPrefix(s.prefix, key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("s3 delete bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

// Exists reports whether the key currently exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	objectKey := applyPrefix(s.prefix, key)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return true, nil
}

func (s *Store) objectTags(ctx context.Context, objectKey string) (map[string]string, error) {
	out, err := s.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get tagging bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	tags := make(map[string]string, len(out.TagSet))
	for _, tag := range out.TagSet {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags, nil
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func encodeTags(tags map[string]string) string {
	vals := url.Values{}
	for k, v := range tags {
		vals.Set(k, v)
	}
	return vals.Encode()
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

func stripPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	if cleanPrefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, cleanPrefix), "/")
}

var _ object.Store = (*Store)(nil)
