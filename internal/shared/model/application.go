package model

import (
	"strings"
	"time"
)

// ApplicationStatus 投递状态
type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "SUBMITTED" // 初始状态
	ApplicationReviewed    ApplicationStatus = "REVIEWED"
	ApplicationShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationHired       ApplicationStatus = "HIRED"
)

// AllApplicationStatuses 全部投递状态
var AllApplicationStatuses = []ApplicationStatus{
	ApplicationSubmitted, ApplicationReviewed, ApplicationShortlisted, ApplicationRejected, ApplicationHired,
}

// Valid 是否为已知状态
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSubmitted, ApplicationReviewed, ApplicationShortlisted, ApplicationRejected, ApplicationHired:
		return true
	}
	return false
}

// ParseApplicationStatus 解析投递状态（大小写不敏感）
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	st := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// CanTransitionTo 状态迁移规则
//
// 唯一禁止的迁移是 REJECTED -> HIRED，其余迁移（包括回退）均允许。
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return !(s == ApplicationRejected && next == ApplicationHired)
}

// Application 职位投递
//
// job_id + job_seeker_id 唯一。EmployerID 冗余自所属职位（职位的雇主不可变），
// 其余 Job* / Seeker* 字段为查询视图，不持久化。
type Application struct {
	ID            string            `json:"id" bson:"_id"`
	JobID         string            `json:"jobId" bson:"job_id"`
	JobSeekerID   string            `json:"jobSeekerId" bson:"job_seeker_id"`
	EmployerID    string            `json:"employerId" bson:"employer_id"`
	CVID          *string           `json:"cvId,omitempty" bson:"cv_id,omitempty"`
	Status        ApplicationStatus `json:"status" bson:"status"`
	CoverLetter   string            `json:"coverLetter" bson:"cover_letter"`
	EmployerNotes string            `json:"employerNotes" bson:"employer_notes"`
	AppliedAt     time.Time         `json:"appliedAt" bson:"applied_at"`
	UpdatedAt     time.Time         `json:"updatedAt" bson:"updated_at"`

	JobTitle         string `json:"jobTitle" bson:"-"`
	EmployerName     string `json:"employerName" bson:"-"`
	EmployerEmail    string `json:"employerEmail" bson:"-"`
	SeekerName       string `json:"jobSeekerName" bson:"-"`
	SeekerEmail      string `json:"jobSeekerEmail" bson:"-"`
	SeekerHeadline   string `json:"jobSeekerHeadline" bson:"-"`
	SeekerPhone      string `json:"jobSeekerPhone" bson:"-"`
	SeekerLocation   string `json:"jobSeekerLocation" bson:"-"`
	SeekerExperience string `json:"jobSeekerExperience" bson:"-"`
	SeekerSkills     string `json:"jobSeekerSkills" bson:"-"`
}
