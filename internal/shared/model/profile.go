package model

import "time"

// ProfileVisibility 求职者资料可见性
type ProfileVisibility string

const (
	VisibilityPublic  ProfileVisibility = "PUBLIC"
	VisibilityPrivate ProfileVisibility = "PRIVATE"
)

// JobSeeker 求职者资料（与 JOB_SEEKER 用户一对一）
type JobSeeker struct {
	ID                string            `json:"id" bson:"_id"`
	UserID            string            `json:"userId" bson:"user_id"`
	Email             string            `json:"email" bson:"-"` // 来自 users 表
	FullName          string            `json:"fullName" bson:"full_name"`
	Phone             string            `json:"phone" bson:"phone"`
	Location          string            `json:"location" bson:"location"`
	Bio               string            `json:"bio" bson:"bio"`
	Headline          string            `json:"headline" bson:"headline"`
	Skills            string            `json:"skills" bson:"skills"` // 逗号分隔
	Experience        string            `json:"experience" bson:"experience"`
	Education         string            `json:"education" bson:"education"`
	ProfilePhotoURL   string            `json:"profilePhotoUrl" bson:"profile_photo_url"`
	ProfileVisibility ProfileVisibility `json:"profileVisibility" bson:"profile_visibility"`
	CreatedAt         time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updated_at"`
}

// Employer 雇主资料（与 EMPLOYER 用户一对一）
type Employer struct {
	ID           string    `json:"id" bson:"_id"`
	UserID       string    `json:"userId" bson:"user_id"`
	CompanyName  string    `json:"companyName" bson:"company_name"`
	CompanyEmail string    `json:"companyEmail" bson:"company_email"`
	Description  string    `json:"about" bson:"description"`
	Website      string    `json:"website" bson:"website"`
	Location     string    `json:"location" bson:"location"`
	Industry     string    `json:"industry" bson:"industry"`
	CompanySize  string    `json:"companySize" bson:"company_size"`
	Founded      string    `json:"founded" bson:"founded"`
	Logo         string    `json:"logo" bson:"logo"`
	IsApproved   bool      `json:"isApproved" bson:"is_approved"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// JobSeekerPatch 求职者资料局部更新，nil 表示不修改
type JobSeekerPatch struct {
	FullName          *string            `json:"fullName,omitempty"`
	Phone             *string            `json:"phone,omitempty"`
	Location          *string            `json:"location,omitempty"`
	Bio               *string            `json:"bio,omitempty"`
	Headline          *string            `json:"headline,omitempty"`
	Skills            *string            `json:"skills,omitempty"`
	Experience        *string            `json:"experience,omitempty"`
	Education         *string            `json:"education,omitempty"`
	ProfilePhotoURL   *string            `json:"profilePhotoUrl,omitempty"`
	ProfileVisibility *ProfileVisibility `json:"profileVisibility,omitempty"`
}

// Apply 将非 nil 字段写入 s
func (p JobSeekerPatch) Apply(s *JobSeeker) {
	setString(&s.FullName, p.FullName)
	setString(&s.Phone, p.Phone)
	setString(&s.Location, p.Location)
	setString(&s.Bio, p.Bio)
	setString(&s.Headline, p.Headline)
	setString(&s.Skills, p.Skills)
	setString(&s.Experience, p.Experience)
	setString(&s.Education, p.Education)
	setString(&s.ProfilePhotoURL, p.ProfilePhotoURL)
	if p.ProfileVisibility != nil {
		s.ProfileVisibility = *p.ProfileVisibility
	}
}

// EmployerPatch 雇主资料局部更新，nil 表示不修改
//
// 审批状态不在此处修改，只能由管理员操作。
type EmployerPatch struct {
	CompanyName  *string `json:"companyName,omitempty"`
	CompanyEmail *string `json:"companyEmail,omitempty"`
	Description  *string `json:"about,omitempty"`
	Website      *string `json:"website,omitempty"`
	Location     *string `json:"location,omitempty"`
	Industry     *string `json:"industry,omitempty"`
	CompanySize  *string `json:"companySize,omitempty"`
	Founded      *string `json:"founded,omitempty"`
	Logo         *string `json:"logo,omitempty"`
}

// Apply 将非 nil 字段写入 e
func (p EmployerPatch) Apply(e *Employer) {
	setString(&e.CompanyName, p.CompanyName)
	setString(&e.CompanyEmail, p.CompanyEmail)
	setString(&e.Description, p.Description)
	setString(&e.Website, p.Website)
	setString(&e.Location, p.Location)
	setString(&e.Industry, p.Industry)
	setString(&e.CompanySize, p.CompanySize)
	setString(&e.Founded, p.Founded)
	setString(&e.Logo, p.Logo)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
