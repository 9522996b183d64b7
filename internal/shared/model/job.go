package model

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus 职位状态
type JobStatus string

const (
	JobStatusPending  JobStatus = "PENDING"  // 待审核（初始状态）
	JobStatusApproved JobStatus = "APPROVED" // 已上线
	JobStatusRejected JobStatus = "REJECTED" // 审核拒绝（终态）
	JobStatusClosed   JobStatus = "CLOSED"   // 雇主关闭（终态）
)

// AllJobStatuses 全部职位状态
var AllJobStatuses = []JobStatus{JobStatusPending, JobStatusApproved, JobStatusRejected, JobStatusClosed}

// Valid 是否为已知状态
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusApproved, JobStatusRejected, JobStatusClosed:
		return true
	}
	return false
}

// ParseJobStatus 解析职位状态（大小写不敏感）
func ParseJobStatus(s string) (JobStatus, bool) {
	st := JobStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// JobType 用工类型
type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeContract   JobType = "CONTRACT"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeRemote     JobType = "REMOTE"
)

// Valid 是否为已知用工类型
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeRemote:
		return true
	}
	return false
}

// ParseJobType 解析用工类型（大小写不敏感，兼容 "full-time" 写法）
func ParseJobType(s string) (JobType, bool) {
	t := JobType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	return t, t.Valid()
}

// Job 职位
//
// EmployerName / EmployerEmail / ApplicantCount 为查询时填充的视图字段，不持久化。
type Job struct {
	ID          string     `json:"id" bson:"_id"`
	EmployerID  string     `json:"employerId" bson:"employer_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Location    string     `json:"location" bson:"location"`
	JobType     JobType    `json:"jobType" bson:"job_type"`
	SalaryRange string     `json:"salaryRange" bson:"salary_range"`
	Status      JobStatus  `json:"status" bson:"status"`
	Deadline    *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`

	EmployerName   string `json:"employerName" bson:"-"`
	EmployerEmail  string `json:"employerEmail" bson:"-"`
	ApplicantCount int64  `json:"applicantCount" bson:"-"`
}

// IsActive 是否处于公开可见集合：已审核且未过截止时间
func (j *Job) IsActive(now time.Time) bool {
	if j.Status != JobStatusApproved {
		return false
	}
	return j.Deadline == nil || !j.Deadline.Before(now)
}

// JobPatch 职位局部更新，nil 表示不修改
type JobPatch struct {
	Title       *string
	Description *string
	Location    *string
	JobType     *JobType
	SalaryRange *string
	Deadline    *time.Time
	Status      *JobStatus
}

// ApplyFields 写入除状态外的字段，状态变更由调用方按权限处理
func (p JobPatch) ApplyFields(j *Job) {
	setString(&j.Title, p.Title)
	setString(&j.Description, p.Description)
	setString(&j.Location, p.Location)
	setString(&j.SalaryRange, p.SalaryRange)
	if p.JobType != nil {
		j.JobType = *p.JobType
	}
	if p.Deadline != nil {
		d := *p.Deadline
		j.Deadline = &d
	}
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDeadline 解析截止时间
//
// 无时区的写法按 UTC 处理；仅日期时取当天 23:59:59。
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q", s)
}
