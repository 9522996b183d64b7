// Package objstore 简历文件的对象存储
//
// 两种后端：本地目录（默认）和 MinIO。对象键由调用方生成（<uuid>.<ext>），
// 后端只负责按键读写，不解析内容。
package objstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// Store 对象存储接口
type Store interface {
	// Put 写入对象，size 未知时传 -1
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open 读取对象，调用方负责关闭；不存在时返回 ErrNotFound
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象；不存在时返回 ErrNotFound
	Delete(ctx context.Context, key string) error
	// Location 对象的访问位置，写入 CV.FileURL
	Location(key string) string
}
