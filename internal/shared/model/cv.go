package model

import "time"

// CV 简历文件
//
// 每个求职者最多一份 IsDefault=true。StoredName 是对象存储中的键（<uuid>.<ext>）。
type CV struct {
	ID          string    `json:"id" bson:"_id"`
	JobSeekerID string    `json:"jobSeekerId" bson:"job_seeker_id"`
	FileURL     string    `json:"fileUrl" bson:"file_url"`
	FileName    string    `json:"fileName" bson:"file_name"`
	FileType    string    `json:"fileType" bson:"file_type"`
	FileSize    int64     `json:"fileSize" bson:"file_size"`
	StoredName  string    `json:"-" bson:"stored_name"`
	IsDefault   bool      `json:"isDefault" bson:"is_default"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}
