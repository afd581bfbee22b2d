package pipeline

import (
	"fmt"
	"strings"
)

const (
	schemeGCS = "gs://"
	schemeS3  = "s3://"
)

// IsGCSPath は gs:// で始まるパスかどうかを返します。
func IsGCSPath(path string) bool { return strings.HasPrefix(path, schemeGCS) }

// IsS3Path は s3:// で始まるパスかどうかを返します。
func IsS3Path(path string) bool { return strings.HasPrefix(path, schemeS3) }

// parseObjectURI は scheme://bucket/object 形式のURIをバケット名とオブジェクト名に分割します。
func parseObjectURI(uri, scheme string) (bucket, object string, err error) {
	path := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(path, "/", 2)

	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("無効なURI形式です: %s (%sbucket-name/object-name の形式で指定してください)", uri, scheme)
	}
	return parts[0], parts[1], nil
}
