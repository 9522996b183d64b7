package mongostore

import (
	"context"
	"errors"

	"jobboard/internal/shared/model"
	"jobboard/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// CVStore
// ============================================================================

// CreateCV 创建简历，首份简历按需设为默认
//
// 并发首份上传由 job_seeker_id + is_default 的部分唯一索引兜底。
func (s *Store) CreateCV(ctx context.Context, cv *model.CV, defaultIfFirst bool) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		if defaultIfFirst {
			n, err := s.col(ColCVs).CountDocuments(ctx, bson.D{{Key: "job_seeker_id", Value: cv.JobSeekerID}})
			if err != nil {
				return err
			}
			cv.IsDefault = n == 0
		}
		return insertOne(ctx, s.col(ColCVs), cv)
	})
	if errors.Is(err, storage.ErrDuplicate) && defaultIfFirst && cv.IsDefault {
		cv.IsDefault = false
		return insertOne(ctx, s.col(ColCVs), cv)
	}
	return err
}

func (s *Store) GetCV(ctx context.Context, id string) (*model.CV, error) {
	return findOne[model.CV](ctx, s.col(ColCVs), bson.D{{Key: "_id", Value: id}})
}

var cvNewestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) ListCVs(ctx context.Context, jobSeekerID string) ([]*model.CV, error) {
	return findMany[model.CV](ctx, s.col(ColCVs),
		bson.D{{Key: "job_seeker_id", Value: jobSeekerID}},
		options.Find().SetSort(cvNewestFirst))
}

func (s *Store) GetLatestCV(ctx context.Context, jobSeekerID string) (*model.CV, error) {
	return findOne[model.CV](ctx, s.col(ColCVs),
		bson.D{{Key: "job_seeker_id", Value: jobSeekerID}},
		options.FindOne().SetSort(cvNewestFirst))
}

func (s *Store) GetDefaultCV(ctx context.Context, jobSeekerID string) (*model.CV, error) {
	return findOne[model.CV](ctx, s.col(ColCVs), bson.D{
		{Key: "job_seeker_id", Value: jobSeekerID},
		{Key: "is_default", Value: true},
	})
}

func (s *Store) SetDefaultCV(ctx context.Context, jobSeekerID, cvID string) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		_, err := s.col(ColCVs).UpdateMany(ctx,
			bson.D{
				{Key: "job_seeker_id", Value: jobSeekerID},
				{Key: "is_default", Value: true},
				{Key: "_id", Value: bson.D{{Key: "$ne", Value: cvID}}},
			},
			bson.D{{Key: "$set", Value: bson.D{{Key: "is_default", Value: false}}}})
		if err != nil {
			return wrapError(err)
		}
		res, err := s.col(ColCVs).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: cvID}, {Key: "job_seeker_id", Value: jobSeekerID}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "is_default", Value: true}}}})
		if err != nil {
			return wrapError(err)
		}
		if res.MatchedCount == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return storage.ErrConflict
	}
	return err
}

func (s *Store) UpdateCVMetadata(ctx context.Context, id string, title, description *string) error {
	set := bson.D{}
	if title != nil {
		set = append(set, bson.E{Key: "title", Value: *title})
	}
	if description != nil {
		set = append(set, bson.E{Key: "description", Value: *description})
	}
	if len(set) == 0 {
		cv, err := s.GetCV(ctx, id)
		if err != nil {
			return err
		}
		if cv == nil {
			return storage.ErrNotFound
		}
		return nil
	}
	return updateFields(ctx, s.col(ColCVs), id, set)
}

// DeleteCV 删除简历，引用它的投递去掉 cv_id
func (s *Store) DeleteCV(ctx context.Context, id string) error {
	return s.withTx(ctx, func(ctx context.Context) error {
		_, err := s.col(ColApplications).UpdateMany(ctx,
			bson.D{{Key: "cv_id", Value: id}},
			bson.D{{Key: "$unset", Value: bson.D{{Key: "cv_id", Value: ""}}}})
		if err != nil {
			return wrapError(err)
		}
		return deleteByID(ctx, s.col(ColCVs), id)
	})
}
