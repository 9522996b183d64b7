package model

// 统计结果均为只读快照，按需计算，不做缓存。

// JobStatistics 职位统计
type JobStatistics struct {
	TotalJobs    int64 `json:"totalJobs"`
	ActiveJobs   int64 `json:"activeJobs"` // APPROVED
	PendingJobs  int64 `json:"pendingJobs"`
	ClosedJobs   int64 `json:"closedJobs"`
	RejectedJobs int64 `json:"rejectedJobs"`
}

// NewJobStatistics 由按状态计数构建
func NewJobStatistics(byStatus map[JobStatus]int64) JobStatistics {
	st := JobStatistics{
		ActiveJobs:   byStatus[JobStatusApproved],
		PendingJobs:  byStatus[JobStatusPending],
		ClosedJobs:   byStatus[JobStatusClosed],
		RejectedJobs: byStatus[JobStatusRejected],
	}
	st.TotalJobs = st.ActiveJobs + st.PendingJobs + st.ClosedJobs + st.RejectedJobs
	return st
}

// UserStatistics 用户统计
type UserStatistics struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
	JobSeekers    int64 `json:"jobSeekers"`
	Employers     int64 `json:"employers"`
	Admins        int64 `json:"admins"`
}

// EmployerCounts 雇主审批统计
type EmployerCounts struct {
	TotalEmployers    int64 `json:"totalEmployers"`
	ApprovedEmployers int64 `json:"approvedEmployers"`
	PendingEmployers  int64 `json:"pendingEmployers"`
}

// ApplicationStatistics 求职者投递统计
type ApplicationStatistics struct {
	TotalApplications       int64 `json:"totalApplications"`
	SubmittedApplications   int64 `json:"submittedApplications"`
	ReviewedApplications    int64 `json:"reviewedApplications"`
	ShortlistedApplications int64 `json:"shortlistedApplications"`
	RejectedApplications    int64 `json:"rejectedApplications"`
	HiredApplications       int64 `json:"hiredApplications"`
}

// NewApplicationStatistics 由按状态计数构建
func NewApplicationStatistics(byStatus map[ApplicationStatus]int64) ApplicationStatistics {
	st := ApplicationStatistics{
		SubmittedApplications:   byStatus[ApplicationSubmitted],
		ReviewedApplications:    byStatus[ApplicationReviewed],
		ShortlistedApplications: byStatus[ApplicationShortlisted],
		RejectedApplications:    byStatus[ApplicationRejected],
		HiredApplications:       byStatus[ApplicationHired],
	}
	st.TotalApplications = st.SubmittedApplications + st.ReviewedApplications +
		st.ShortlistedApplications + st.RejectedApplications + st.HiredApplications
	return st
}

// EmployerStatistics 雇主工作台统计
type EmployerStatistics struct {
	TotalJobs               int64 `json:"totalJobs"`
	ActiveJobs              int64 `json:"activeJobs"`
	PendingJobs             int64 `json:"pendingJobs"`
	ClosedJobs              int64 `json:"closedJobs"`
	TotalApplications       int64 `json:"totalApplications"`
	PendingApplications     int64 `json:"pendingApplications"` // SUBMITTED
	ReviewedApplications    int64 `json:"reviewedApplications"`
	ShortlistedApplications int64 `json:"shortlistedApplications"`
	HiredApplications       int64 `json:"hiredApplications"`
}

// DashboardStatistics 管理后台总览
type DashboardStatistics struct {
	Users             UserStatistics `json:"users"`
	Jobs              JobStatistics  `json:"jobs"`
	Employers         EmployerCounts `json:"employers"`
	TotalApplications int64          `json:"totalApplications"`
}
