package model

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	MaxPage         = 1_000_000 // 保证 Page*Size 不溢出
)

// PageRequest 分页与排序参数
//
// Size 为 0 表示不分页（返回全部）。Sort 为字段名，由存储层按白名单映射。
type PageRequest struct {
	Page int
	Size int
	Sort string
	Asc  bool
}

// Unpaged 不分页，按默认排序返回全部
var Unpaged = PageRequest{}

// Offset 计算偏移量
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	return min(p.Page, MaxPage) * p.Size
}

// Page 分页结果
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage 构建分页结果
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	size := req.Size
	if size <= 0 {
		size = len(items)
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       items,
		Page:          req.Page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
