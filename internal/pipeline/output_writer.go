package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentTypeCSV は出力CSVの Content-Type です。
const ContentTypeCSV = "text/csv; charset=utf-8"

// StorageOutputWriter は OutputWriter インターフェースの具象実装です。
// ローカルファイル、GCS、S3 への書き込みを処理します。
type StorageOutputWriter struct {
	gcsClient *storage.Client
	s3Client  S3API
}

// NewStorageOutputWriter は新しい StorageOutputWriter インスタンスを作成します。
func NewStorageOutputWriter(gcsClient *storage.Client, s3Client S3API) *StorageOutputWriter {
	return &StorageOutputWriter{gcsClient: gcsClient, s3Client: s3Client}
}

// Write はパスのスキームに応じて内容を書き込みます。
func (w *StorageOutputWriter) Write(ctx context.Context, path string, content []byte, contentType string) error {
	switch {
	case IsGCSPath(path):
		bucket, object, err := parseObjectURI(path, schemeGCS)
		if err != nil {
			return err
		}
		return w.writeToGCS(ctx, bucket, object, content, contentType)
	case IsS3Path(path):
		bucket, key, err := parseObjectURI(path, schemeS3)
		if err != nil {
			return err
		}
		return w.writeToS3(ctx, bucket, key, content, contentType)
	default:
		return writeLocalFile(path, content)
	}
}

// writeToGCS は指定されたバケットとパスにコンテンツを書き込みます。
func (w *StorageOutputWriter) writeToGCS(ctx context.Context, bucketName, objectPath string, content []byte, contentType string) error {
	if w.gcsClient == nil {
		return fmt.Errorf("GCS URIが指定されましたが、GCSクライアントが初期化されていません。")
	}

	// Writerを取得し、コンテキストを使用してタイムアウトやキャンセルを処理可能にする
	wc := w.gcsClient.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(content); err != nil {
		wc.Close() // 書き込みエラー時は必ず閉じる
		return fmt.Errorf("GCSへのコンテンツ書き込みに失敗しました: %w", err)
	}

	// Writerを閉じる (これが実際のアップロードをトリガーします)
	if err := wc.Close(); err != nil {
		return fmt.Errorf("GCS Writerのクローズに失敗しました (アップロード失敗): %w", err)
	}
	return nil
}

func (w *StorageOutputWriter) writeToS3(ctx context.Context, bucket, key string, content []byte, contentType string) error {
	if w.s3Client == nil {
		return fmt.Errorf("S3 URIが指定されましたが、S3クライアントが初期化されていません。")
	}
	_, err := w.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("S3へのアップロードに失敗しました (s3://%s/%s): %w", bucket, key, err)
	}
	return nil
}

// writeLocalFile は一時ファイルに書き込んでから置き換えます。
// 途中で中断されても既存の出力は壊れません。
func writeLocalFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました (%s): %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ファイル権限の設定に失敗しました: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ファイルの置き換えに失敗しました (%s): %w", filename, err)
	}
	return nil
}

// 型アサーションチェック
var _ OutputWriter = (*StorageOutputWriter)(nil)
