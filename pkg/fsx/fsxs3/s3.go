package fsxs3

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// API is the part of *s3.Client the file system needs.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem implements fsx.FileSystem over one bucket. Every key is
// placed under prefix.
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

var _ fsx.FileSystem = (*S3FileSystem)(nil)

func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3FileSystem) key(p string) string {
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	switch {
	case s.prefix == "":
		return clean
	case clean == "":
		return s.prefix
	default:
		return s.prefix + "/" + clean
	}
}

func (s *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, s.readErr(p, err)
	}
	return out.Body, nil
}

func (s *S3FileSystem) Stat(ctx context.Context, p string) (fsx.FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return fsx.FileInfo{}, s.readErr(p, err)
	}
	return fsx.FileInfo{
		Name:        path.Base(p),
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}, nil
}

func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.Stat(ctx, p)
	if err == nil {
		return true, nil
	}
	if errx.HasCode(err, fsx.CodeNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader, contentType string) error {
	if contentType == "" {
		contentType = fsx.ContentTypeByExt(strings.ToLower(path.Ext(p)))
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.key(p)),
		Body:                 r,
		ContentType:          aws.String(contentType),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", p)
	}
	return nil
}

func (s *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil && !isNotFound(err) {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", p)
	}
	return nil
}

// DeleteDir removes every object under p/, one list page at a time.
func (s *S3FileSystem) DeleteDir(ctx context.Context, p string) error {
	dir := s.key(p)
	if dir == "" || dir == s.prefix {
		return fsx.ErrInvalidPath(p)
	}
	dir += "/"

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dir),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", p)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		}); err != nil {
			return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", p)
		}
	}
	return nil
}

func (s *S3FileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

func (s *S3FileSystem) readErr(p string, err error) error {
	if isNotFound(err) {
		return fsx.ErrNotFound(p).WithCause(err)
	}
	return fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", p)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
