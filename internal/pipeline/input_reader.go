package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API は本ツールが使用する S3 クライアントの操作です。
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// StorageInputReader は InputReader の具象実装であり、
// ローカルファイル、GCS オブジェクト、S3 オブジェクトの読み込みを処理します。
type StorageInputReader struct {
	gcsClient *storage.Client
	s3Client  S3API
}

// NewStorageInputReader は StorageInputReader の新しいインスタンスを作成します。
// 使用しないストレージのクライアントには nil を渡せます。
func NewStorageInputReader(gcsClient *storage.Client, s3Client S3API) *StorageInputReader {
	return &StorageInputReader{
		gcsClient: gcsClient,
		s3Client:  s3Client,
	}
}

// Open は、ファイルパスを検査し、ローカルファイル、GCS、S3 のいずれかからストリームを開きます。
func (r *StorageInputReader) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	switch {
	case IsGCSPath(filePath):
		return r.openGCSObject(ctx, filePath)
	case IsS3Path(filePath):
		return r.openS3Object(ctx, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ローカルファイルのオープンに失敗しました: %w", err)
	}
	return file, nil
}

// Exists は入力が存在するかどうかを返します。
func (r *StorageInputReader) Exists(ctx context.Context, filePath string) (bool, error) {
	switch {
	case IsGCSPath(filePath):
		if r.gcsClient == nil {
			return false, fmt.Errorf("GCS URIが指定されましたが、GCSクライアントが初期化されていません。")
		}
		bucket, object, err := parseObjectURI(filePath, schemeGCS)
		if err != nil {
			return false, err
		}
		if _, err := r.gcsClient.Bucket(bucket).Object(object).Attrs(ctx); err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("GCSオブジェクトの確認に失敗しました (URI: %s): %w", filePath, err)
		}
		return true, nil

	case IsS3Path(filePath):
		if r.s3Client == nil {
			return false, fmt.Errorf("S3 URIが指定されましたが、S3クライアントが初期化されていません。")
		}
		bucket, key, err := parseObjectURI(filePath, schemeS3)
		if err != nil {
			return false, err
		}
		_, err = r.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			var notFound *s3types.NotFound
			if errors.As(err, &notFound) {
				return false, nil
			}
			return false, fmt.Errorf("S3オブジェクトの確認に失敗しました (URI: %s): %w", filePath, err)
		}
		return true, nil
	}

	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("ローカルファイルの確認に失敗しました: %w", err)
	}
	return true, nil
}

// openGCSObject は、GCS URI からオブジェクトを読み込み、io.ReadCloser を返します。
func (r *StorageInputReader) openGCSObject(ctx context.Context, gcsURI string) (io.ReadCloser, error) {
	if r.gcsClient == nil {
		return nil, fmt.Errorf("GCS URIが指定されましたが、GCSクライアントが初期化されていません。")
	}
	bucketName, objectName, err := parseObjectURI(gcsURI, schemeGCS)
	if err != nil {
		return nil, err
	}

	rc, err := r.gcsClient.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSファイルの読み込みに失敗しました (URI: %s): %w", gcsURI, err)
	}
	return rc, nil
}

// openS3Object は、S3 URI からオブジェクトを読み込み、io.ReadCloser を返します。
func (r *StorageInputReader) openS3Object(ctx context.Context, s3URI string) (io.ReadCloser, error) {
	if r.s3Client == nil {
		return nil, fmt.Errorf("S3 URIが指定されましたが、S3クライアントが初期化されていません。")
	}
	bucket, key, err := parseObjectURI(s3URI, schemeS3)
	if err != nil {
		return nil, err
	}

	out, err := r.s3Client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("S3ファイルの読み込みに失敗しました (URI: %s): %w", s3URI, err)
	}
	return out.Body, nil
}

// 型アサーションチェック
var (
	_ InputReader = (*StorageInputReader)(nil)
	_ S3API       = (*s3.Client)(nil)
)
