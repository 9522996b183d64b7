package mongostore

import (
	"context"
	"time"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) CreateUserWithProfile(ctx context.Context, user *model.User, seeker *model.JobSeeker, employer *model.Employer) error {
	return s.withTx(ctx, func(ctx context.Context) error {
		if err := insertOne(ctx, s.col(ColUsers), user); err != nil {
			return err
		}
		if seeker != nil {
			if seeker.ProfileVisibility == "" {
				seeker.ProfileVisibility = model.VisibilityPublic
			}
			if err := insertOne(ctx, s.col(ColJobSeekers), seeker); err != nil {
				return err
			}
		}
		if employer != nil {
			if err := insertOne(ctx, s.col(ColEmployers), employer); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

var userSortFields = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
	"role":      "role",
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter, page model.PageRequest) ([]*model.User, int64, error) {
	f := bson.D{}
	if filter.Role != "" {
		f = append(f, bson.E{Key: "role", Value: filter.Role})
	}
	if filter.EmailContains != "" {
		f = append(f, bson.E{Key: "email", Value: containsRegex(filter.EmailContains)})
	}
	opts := pageOptions(page, userSortFields, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return countFind[model.User](ctx, s.col(ColUsers), f, opts)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: now.UTC()},
	})
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool, now time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "is_active", Value: active},
		{Key: "updated_at", Value: now.UTC()},
	})
}

func (s *Store) UserStatistics(ctx context.Context) (model.UserStatistics, error) {
	var st model.UserStatistics
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "role", Value: "$role"}, {Key: "is_active", Value: "$is_active"}}},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.col(ColUsers).Aggregate(ctx, pipeline)
	if err != nil {
		return st, wrapError(err)
	}
	var rows []struct {
		Key struct {
			Role     model.Role `bson:"role"`
			IsActive bool       `bson:"is_active"`
		} `bson:"_id"`
		N int64 `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return st, err
	}
	for _, r := range rows {
		st.TotalUsers += r.N
		if r.Key.IsActive {
			st.ActiveUsers += r.N
		} else {
			st.InactiveUsers += r.N
		}
		switch r.Key.Role {
		case model.RoleJobSeeker:
			st.JobSeekers += r.N
		case model.RoleEmployer:
			st.Employers += r.N
		case model.RoleAdmin:
			st.Admins += r.N
		}
	}
	return st, nil
}

// ============================================================================
// ProfileStore
// ============================================================================

// fillSeekerEmail 求职者邮箱来自 users 集合
func (s *Store) fillSeekerEmail(ctx context.Context, js *model.JobSeeker) error {
	if js == nil {
		return nil
	}
	u, err := s.GetUserByID(ctx, js.UserID)
	if err != nil {
		return err
	}
	if u != nil {
		js.Email = u.Email
	}
	return nil
}

func (s *Store) GetJobSeeker(ctx context.Context, id string) (*model.JobSeeker, error) {
	js, err := findOne[model.JobSeeker](ctx, s.col(ColJobSeekers), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	return js, s.fillSeekerEmail(ctx, js)
}

func (s *Store) GetJobSeekerByUserID(ctx context.Context, userID string) (*model.JobSeeker, error) {
	js, err := findOne[model.JobSeeker](ctx, s.col(ColJobSeekers), bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return nil, err
	}
	return js, s.fillSeekerEmail(ctx, js)
}

func (s *Store) UpdateJobSeeker(ctx context.Context, js *model.JobSeeker) error {
	return updateFields(ctx, s.col(ColJobSeekers), js.ID, bson.D{
		{Key: "full_name", Value: js.FullName},
		{Key: "phone", Value: js.Phone},
		{Key: "location", Value: js.Location},
		{Key: "bio", Value: js.Bio},
		{Key: "headline", Value: js.Headline},
		{Key: "skills", Value: js.Skills},
		{Key: "experience", Value: js.Experience},
		{Key: "education", Value: js.Education},
		{Key: "profile_photo_url", Value: js.ProfilePhotoURL},
		{Key: "profile_visibility", Value: js.ProfileVisibility},
		{Key: "updated_at", Value: js.UpdatedAt.UTC()},
	})
}

func (s *Store) GetEmployer(ctx context.Context, id string) (*model.Employer, error) {
	return findOne[model.Employer](ctx, s.col(ColEmployers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetEmployerByUserID(ctx context.Context, userID string) (*model.Employer, error) {
	return findOne[model.Employer](ctx, s.col(ColEmployers), bson.D{{Key: "user_id", Value: userID}})
}

func (s *Store) UpdateEmployer(ctx context.Context, e *model.Employer) error {
	return updateFields(ctx, s.col(ColEmployers), e.ID, bson.D{
		{Key: "company_name", Value: e.CompanyName},
		{Key: "company_email", Value: e.CompanyEmail},
		{Key: "description", Value: e.Description},
		{Key: "website", Value: e.Website},
		{Key: "location", Value: e.Location},
		{Key: "industry", Value: e.Industry},
		{Key: "company_size", Value: e.CompanySize},
		{Key: "founded", Value: e.Founded},
		{Key: "logo", Value: e.Logo},
		{Key: "updated_at", Value: e.UpdatedAt.UTC()},
	})
}

func (s *Store) ListEmployers(ctx context.Context, filter storage.EmployerFilter) ([]*model.Employer, error) {
	f := bson.D{}
	if filter.Approved != nil {
		f = append(f, bson.E{Key: "is_approved", Value: *filter.Approved})
	}
	if filter.CompanyContains != "" {
		f = append(f, bson.E{Key: "company_name", Value: containsRegex(filter.CompanyContains)})
	}
	opts := pageOptions(model.Unpaged, nil, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return findMany[model.Employer](ctx, s.col(ColEmployers), f, opts)
}

func (s *Store) SetEmployerApproved(ctx context.Context, id string, approved bool, now time.Time) error {
	return updateFields(ctx, s.col(ColEmployers), id, bson.D{
		{Key: "is_approved", Value: approved},
		{Key: "updated_at", Value: now.UTC()},
	})
}

func (s *Store) EmployerCounts(ctx context.Context) (model.EmployerCounts, error) {
	var c model.EmployerCounts
	col := s.col(ColEmployers)
	total, err := col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return c, wrapError(err)
	}
	approved, err := col.CountDocuments(ctx, bson.D{{Key: "is_approved", Value: true}})
	if err != nil {
		return c, wrapError(err)
	}
	c.TotalEmployers = total
	c.ApprovedEmployers = approved
	c.PendingEmployers = total - approved
	return c, nil
}
