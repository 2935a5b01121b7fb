package awsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// sha256MetadataKey is the S3 object metadata key carrying the bundle hash.
// S3 exposes it to clients as x-amz-meta-sha256.
const sha256MetadataKey = "sha256"

// ObjectsAPI is the S3 surface needed for conditional bundle uploads.
type ObjectsAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectHash returns the sha256 metadata of an existing object, or "" if the
// object does not exist.
func ObjectHash(ctx context.Context, api ObjectsAPI, bucket, key string) (string, error) {
	out, err := api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return "", nil
		}
		return "", fmt.Errorf("head s3://%s/%s: %w", bucket, key, err)
	}
	return out.Metadata[sha256MetadataKey], nil
}

// UploadObject uploads a local file with its sha256 recorded as metadata.
func UploadObject(ctx context.Context, api ObjectsAPI, bucket, key, localPath, hexHash string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	_, err = api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeFor(key)),
		Metadata:    map[string]string{sha256MetadataKey: hexHash},
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".zip":
		return "application/zip"
	case ".jar":
		return "application/java-archive"
	default:
		return "application/octet-stream"
	}
}
