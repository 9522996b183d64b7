package mongostore

import (
	"context"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// JobStore
// ============================================================================

func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	return insertOne(ctx, s.col(ColJobs), job)
}

func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	j, err := findOne[model.Job](ctx, s.col(ColJobs), bson.D{{Key: "_id", Value: id}})
	if err != nil || j == nil {
		return nil, err
	}
	if err := s.fillJobViews(ctx, []*model.Job{j}); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Store) UpdateJob(ctx context.Context, job *model.Job) error {
	set := bson.D{
		{Key: "title", Value: job.Title},
		{Key: "description", Value: job.Description},
		{Key: "location", Value: job.Location},
		{Key: "job_type", Value: job.JobType},
		{Key: "salary_range", Value: job.SalaryRange},
		{Key: "status", Value: job.Status},
		{Key: "updated_at", Value: job.UpdatedAt.UTC()},
	}
	update := bson.D{}
	if job.Deadline != nil {
		set = append(set, bson.E{Key: "deadline", Value: job.Deadline.UTC()})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "deadline", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	res, err := s.col(ColJobs).UpdateOne(ctx, bson.D{{Key: "_id", Value: job.ID}}, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteJob 删除职位及其投递和审核记录
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	return s.withTx(ctx, func(ctx context.Context) error {
		if _, err := s.col(ColApplications).DeleteMany(ctx, bson.D{{Key: "job_id", Value: id}}); err != nil {
			return err
		}
		if _, err := s.col(ColModerationLogs).DeleteMany(ctx, bson.D{{Key: "job_id", Value: id}}); err != nil {
			return err
		}
		return deleteByID(ctx, s.col(ColJobs), id)
	})
}

var jobSortFields = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
	"deadline":  "deadline",
}

func jobFilter(filter storage.JobFilter) bson.D {
	var conds []bson.D
	if filter.ActiveOnly {
		conds = append(conds,
			bson.D{{Key: "status", Value: model.JobStatusApproved}},
			bson.D{{Key: "$or", Value: bson.A{
				bson.D{{Key: "deadline", Value: nil}},
				bson.D{{Key: "deadline", Value: bson.D{{Key: "$gte", Value: filter.Now.UTC()}}}},
			}}},
		)
	} else if filter.Status != "" {
		conds = append(conds, bson.D{{Key: "status", Value: filter.Status}})
	}
	if filter.EmployerID != "" {
		conds = append(conds, bson.D{{Key: "employer_id", Value: filter.EmployerID}})
	}
	if filter.JobType != "" {
		conds = append(conds, bson.D{{Key: "job_type", Value: filter.JobType}})
	}
	if filter.Keyword != "" {
		re := containsRegex(filter.Keyword)
		conds = append(conds, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}}})
	}
	if filter.Location != "" {
		conds = append(conds, bson.D{{Key: "location", Value: containsRegex(filter.Location)}})
	}
	return and(conds)
}

func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter, page model.PageRequest) ([]*model.Job, int64, error) {
	opts := pageOptions(page, jobSortFields, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	jobs, total, err := countFind[model.Job](ctx, s.col(ColJobs), jobFilter(filter), opts)
	if err != nil {
		return nil, 0, err
	}
	if err := s.fillJobViews(ctx, jobs); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (s *Store) CountJobsByStatus(ctx context.Context, employerID string) (map[model.JobStatus]int64, error) {
	match := bson.D{}
	if employerID != "" {
		match = bson.D{{Key: "employer_id", Value: employerID}}
	}
	raw, err := groupCount(ctx, s.col(ColJobs), match, "status")
	if err != nil {
		return nil, err
	}
	counts := make(map[model.JobStatus]int64, len(raw))
	for k, n := range raw {
		counts[model.JobStatus(k)] = n
	}
	return counts, nil
}

// fillJobViews 填充雇主名称、雇主邮箱和投递数
func (s *Store) fillJobViews(ctx context.Context, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	var employerIDs, jobIDs []string
	for _, j := range jobs {
		employerIDs = append(employerIDs, j.EmployerID)
		jobIDs = append(jobIDs, j.ID)
	}

	employers, err := findByIDs(ctx, s.col(ColEmployers), uniq(employerIDs),
		func(e *model.Employer) string { return e.ID })
	if err != nil {
		return err
	}
	var userIDs []string
	for _, e := range employers {
		userIDs = append(userIDs, e.UserID)
	}
	users, err := findByIDs(ctx, s.col(ColUsers), uniq(userIDs),
		func(u *model.User) string { return u.ID })
	if err != nil {
		return err
	}
	applicants, err := groupCount(ctx, s.col(ColApplications),
		bson.D{{Key: "job_id", Value: bson.D{{Key: "$in", Value: jobIDs}}}}, "job_id")
	if err != nil {
		return err
	}

	for _, j := range jobs {
		if e, ok := employers[j.EmployerID]; ok {
			j.EmployerName = e.CompanyName
			if u, ok := users[e.UserID]; ok {
				j.EmployerEmail = u.Email
			}
		}
		j.ApplicantCount = applicants[j.ID]
	}
	return nil
}

// ============================================================================
// ModerationStore
// ============================================================================

func (s *Store) ModerateJob(ctx context.Context, jobID string, status model.JobStatus, entry *model.ModerationLog) error {
	return s.withTx(ctx, func(ctx context.Context) error {
		err := updateFields(ctx, s.col(ColJobs), jobID, bson.D{
			{Key: "status", Value: status},
			{Key: "updated_at", Value: entry.CreatedAt.UTC()},
		})
		if err != nil {
			return err
		}
		entry.JobID = jobID
		return insertOne(ctx, s.col(ColModerationLogs), entry)
	})
}

func (s *Store) ListModerationLogs(ctx context.Context, jobID string) ([]*model.ModerationLog, error) {
	f := bson.D{}
	if jobID != "" {
		f = bson.D{{Key: "job_id", Value: jobID}}
	}
	opts := pageOptions(model.Unpaged, nil, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	logs, err := findMany[model.ModerationLog](ctx, s.col(ColModerationLogs), f, opts)
	if err != nil {
		return nil, err
	}

	var jobIDs, adminIDs []string
	for _, l := range logs {
		jobIDs = append(jobIDs, l.JobID)
		adminIDs = append(adminIDs, l.AdminID)
	}
	jobs, err := findByIDs(ctx, s.col(ColJobs), uniq(jobIDs), func(j *model.Job) string { return j.ID })
	if err != nil {
		return nil, err
	}
	admins, err := findByIDs(ctx, s.col(ColUsers), uniq(adminIDs), func(u *model.User) string { return u.ID })
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		if j, ok := jobs[l.JobID]; ok {
			l.JobTitle = j.Title
		}
		if u, ok := admins[l.AdminID]; ok {
			l.AdminEmail = u.Email
		}
	}
	return logs, nil
}
