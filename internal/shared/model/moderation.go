package model

import "time"

// ModerationAction 审核动作
type ModerationAction string

const (
	ModerationApproved ModerationAction = "APPROVED"
	ModerationRejected ModerationAction = "REJECTED"
)

// ModerationLog 职位审核记录，写入后不可修改
type ModerationLog struct {
	ID        string           `json:"id" bson:"_id"`
	JobID     string           `json:"jobId" bson:"job_id"`
	AdminID   string           `json:"adminId" bson:"admin_id"`
	Action    ModerationAction `json:"action" bson:"action"`
	Reason    string           `json:"reason" bson:"reason"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`

	JobTitle   string `json:"jobTitle" bson:"-"`
	AdminEmail string `json:"adminEmail" bson:"-"`
}
