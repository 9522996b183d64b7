package mongostore

import (
	"context"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// ApplicationStore
// ============================================================================

// CreateApplication 创建投递，employer_id 冗余自职位以支持按雇主查询
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.EmployerID == "" {
		j, err := findOne[model.Job](ctx, s.col(ColJobs), bson.D{{Key: "_id", Value: app.JobID}})
		if err != nil {
			return err
		}
		if j == nil {
			return storage.ErrNotFound
		}
		app.EmployerID = j.EmployerID
	}
	return insertOne(ctx, s.col(ColApplications), app)
}

func (s *Store) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	a, err := findOne[model.Application](ctx, s.col(ColApplications), bson.D{{Key: "_id", Value: id}})
	if err != nil || a == nil {
		return nil, err
	}
	if err := s.fillApplicationViews(ctx, []*model.Application{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func applicationFilter(filter storage.ApplicationFilter) bson.D {
	f := bson.D{}
	if filter.JobID != "" {
		f = append(f, bson.E{Key: "job_id", Value: filter.JobID})
	}
	if filter.JobSeekerID != "" {
		f = append(f, bson.E{Key: "job_seeker_id", Value: filter.JobSeekerID})
	}
	if filter.EmployerID != "" {
		f = append(f, bson.E{Key: "employer_id", Value: filter.EmployerID})
	}
	if filter.CVID != "" {
		f = append(f, bson.E{Key: "cv_id", Value: filter.CVID})
	}
	if filter.Status != "" {
		f = append(f, bson.E{Key: "status", Value: filter.Status})
	}
	return f
}

var applicationSortFields = map[string]string{
	"appliedAt": "applied_at",
	"updatedAt": "updated_at",
	"status":    "status",
}

func (s *Store) ListApplications(ctx context.Context, filter storage.ApplicationFilter, page model.PageRequest) ([]*model.Application, int64, error) {
	opts := pageOptions(page, applicationSortFields, bson.D{{Key: "applied_at", Value: -1}, {Key: "_id", Value: 1}})
	apps, total, err := countFind[model.Application](ctx, s.col(ColApplications), applicationFilter(filter), opts)
	if err != nil {
		return nil, 0, err
	}
	if err := s.fillApplicationViews(ctx, apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, from, to model.ApplicationStatus, now time.Time) error {
	res, err := s.col(ColApplications).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: to},
			{Key: "updated_at", Value: now.UTC()},
		}}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.col(ColApplications).CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

func (s *Store) UpdateApplicationNotes(ctx context.Context, id, notes string, now time.Time) error {
	return updateFields(ctx, s.col(ColApplications), id, bson.D{
		{Key: "employer_notes", Value: notes},
		{Key: "updated_at", Value: now.UTC()},
	})
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColApplications), id)
}

func (s *Store) CountApplicationsByStatus(ctx context.Context, filter storage.ApplicationFilter) (map[model.ApplicationStatus]int64, error) {
	raw, err := groupCount(ctx, s.col(ColApplications), applicationFilter(filter), "status")
	if err != nil {
		return nil, err
	}
	counts := make(map[model.ApplicationStatus]int64, len(raw))
	for k, n := range raw {
		counts[model.ApplicationStatus(k)] = n
	}
	return counts, nil
}

// fillApplicationViews 填充职位标题、雇主与求职者信息
func (s *Store) fillApplicationViews(ctx context.Context, apps []*model.Application) error {
	if len(apps) == 0 {
		return nil
	}
	var jobIDs, employerIDs, seekerIDs []string
	for _, a := range apps {
		jobIDs = append(jobIDs, a.JobID)
		employerIDs = append(employerIDs, a.EmployerID)
		seekerIDs = append(seekerIDs, a.JobSeekerID)
	}

	jobs, err := findByIDs(ctx, s.col(ColJobs), uniq(jobIDs), func(j *model.Job) string { return j.ID })
	if err != nil {
		return err
	}
	employers, err := findByIDs(ctx, s.col(ColEmployers), uniq(employerIDs),
		func(e *model.Employer) string { return e.ID })
	if err != nil {
		return err
	}
	seekers, err := findByIDs(ctx, s.col(ColJobSeekers), uniq(seekerIDs),
		func(js *model.JobSeeker) string { return js.ID })
	if err != nil {
		return err
	}

	var userIDs []string
	for _, e := range employers {
		userIDs = append(userIDs, e.UserID)
	}
	for _, js := range seekers {
		userIDs = append(userIDs, js.UserID)
	}
	users, err := findByIDs(ctx, s.col(ColUsers), uniq(userIDs), func(u *model.User) string { return u.ID })
	if err != nil {
		return err
	}

	for _, a := range apps {
		if j, ok := jobs[a.JobID]; ok {
			a.JobTitle = j.Title
		}
		if e, ok := employers[a.EmployerID]; ok {
			a.EmployerName = e.CompanyName
			if u, ok := users[e.UserID]; ok {
				a.EmployerEmail = u.Email
			}
		}
		if js, ok := seekers[a.JobSeekerID]; ok {
			a.SeekerName = js.FullName
			a.SeekerHeadline = js.Headline
			a.SeekerPhone = js.Phone
			a.SeekerLocation = js.Location
			a.SeekerExperience = js.Experience
			a.SeekerSkills = js.Skills
			if u, ok := users[js.UserID]; ok {
				a.SeekerEmail = u.Email
			}
		}
	}
	return nil
}
