package model

import (
	"crypto/rand"
	"encoding/hex"
)

// ID 前缀
const (
	PrefixUser          = "usr"
	PrefixJobSeeker     = "sk"
	PrefixEmployer      = "emp"
	PrefixJob           = "job"
	PrefixApplication   = "app"
	PrefixCV            = "cv"
	PrefixModerationLog = "mlog"
)

// NewID 生成带前缀的随机 ID
// 格式：prefix-xxxxxxxxxxxx（prefix + 12 字符 hex）
func NewID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
