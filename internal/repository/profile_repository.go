package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kashmau/track-fitness/internal/model"
)

// ProfileRepo provides gorm-backed access to user_profiles and the child
// tables owned by a profile.
type ProfileRepo struct{ DB *gorm.DB }

func NewProfileRepo(db *gorm.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get loads a profile without its children.
func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (model.UserProfile, error) {
	return firstProfile(r.DB.WithContext(ctx), userID)
}

func firstProfile(tx *gorm.DB, userID uuid.UUID) (model.UserProfile, error) {
	var p model.UserProfile
	if err := tx.First(&p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.UserProfile{}, ErrNotFound
		}
		return model.UserProfile{}, err
	}
	return p, nil
}

// lockProfile loads the profile with a row lock so concurrent writers of the
// same profile serialize.
func lockProfile(tx *gorm.DB, userID uuid.UUID) (model.UserProfile, error) {
	return firstProfile(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

// editableColumns are the profile fields a user writes directly.  The Latest*
// snapshot is owned by RecordMetric and RecordFitnessScore.
var editableColumns = []string{
	"FirstName", "LastName", "DateOfBirth", "Gender", "DietPreference",
	"Allergies", "NotificationsEnabled", "Timezone", "UpdatedAt",
}

// Create inserts a new profile.  It returns ErrConflict when the user already
// has one.
func (r *ProfileRepo) Create(ctx context.Context, p *model.UserProfile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.UserProfile{}).Where("user_id = ?", p.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		return insertProfile(tx, p)
	})
}

// insertProfile maps a primary key violation to ErrConflict; the count in
// Create cannot see a concurrent create that has not committed yet.  The
// connection must be opened with TranslateError.
func insertProfile(tx *gorm.DB, p *model.UserProfile) error {
	err := tx.Omit("Goals", "HealthHistory", "Metrics", "FitnessScores").Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// Update locks the profile, lets apply mutate it, and writes back only the
// editable columns.
func (r *ProfileRepo) Update(ctx context.Context, userID uuid.UUID, apply func(*model.UserProfile)) (model.UserProfile, error) {
	var out model.UserProfile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, userID)
		if err != nil {
			return err
		}
		apply(&p)
		p.UserID = userID
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&model.UserProfile{UserID: userID}).Select(editableColumns).Updates(&p).Error; err != nil {
			return err
		}
		out, err = firstProfile(tx, userID)
		return err
	})
	return out, err
}

// Delete removes the profile and every child row.
func (r *ProfileRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&model.Goal{}, &model.HealthHistory{}, &model.Metric{}, &model.FitnessScore{}} {
			if err := tx.Where("user_id = ?", userID).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Where("user_id = ?", userID).Delete(&model.UserProfile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddGoal stores a goal for an existing profile.
func (r *ProfileRepo) AddGoal(ctx context.Context, g *model.Goal) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := firstProfile(tx, g.UserID); err != nil {
			return err
		}
		if g.Status == "" {
			g.Status = model.GoalActive
		}
		return tx.Create(g).Error
	})
}

// ListGoals returns the user's goals, newest first.
func (r *ProfileRepo) ListGoals(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	var out []model.Goal
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&out).Error
	return out, err
}

// AddHealthRecord stores a health history entry for an existing profile.
func (r *ProfileRepo) AddHealthRecord(ctx context.Context, h *model.HealthHistory) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := firstProfile(tx, h.UserID); err != nil {
			return err
		}
		now := time.Now().UTC()
		if h.ReportedAt.IsZero() {
			h.ReportedAt = now
		}
		h.UpdatedAt = now
		return tx.Create(h).Error
	})
}

// ListHealthHistory returns health entries, most recently reported first.
func (r *ProfileRepo) ListHealthHistory(ctx context.Context, userID uuid.UUID) ([]model.HealthHistory, error) {
	var out []model.HealthHistory
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("reported_at desc").Find(&out).Error
	return out, err
}

// RecordMetric stores a measurement and moves the profile's latest snapshot
// forward when no newer measurement of the same type exists.  It returns the
// profile as stored after the update.
func (r *ProfileRepo) RecordMetric(ctx context.Context, m *model.Metric) (model.UserProfile, error) {
	var out model.UserProfile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, m.UserID)
		if err != nil {
			return err
		}
		if m.RecordedAt.IsZero() {
			m.RecordedAt = time.Now().UTC()
		}
		var newer int64
		if err := tx.Model(&model.Metric{}).
			Where("user_id = ? AND type = ? AND recorded_at > ?", m.UserID, m.Type, m.RecordedAt).
			Count(&newer).Error; err != nil {
			return err
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if newer == 0 {
			if updates := snapshotUpdates(m); len(updates) > 0 {
				if err := tx.Model(&p).Updates(updates).Error; err != nil {
					return err
				}
			}
		}
		out, err = firstProfile(tx, m.UserID)
		return err
	})
	return out, err
}

func snapshotUpdates(m *model.Metric) map[string]any {
	updates := map[string]any{}
	if m.Weight != nil {
		updates["latest_weight"] = *m.Weight
	}
	if m.SystolicBP != nil {
		updates["latest_systolic_bp"] = *m.SystolicBP
	}
	if m.DiastolicBP != nil {
		updates["latest_diastolic_bp"] = *m.DiastolicBP
	}
	if m.BloodSugar != nil {
		updates["latest_sugar"] = *m.BloodSugar
	}
	return updates
}

// ListMetrics returns up to limit measurements, newest first.  A limit of
// zero or less returns all of them.
func (r *ProfileRepo) ListMetrics(ctx context.Context, userID uuid.UUID, metricType string, limit int) ([]model.Metric, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if metricType != "" {
		q = q.Where("type = ?", metricType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.Metric
	err := q.Order("recorded_at desc").Find(&out).Error
	return out, err
}

// RecordFitnessScore stores a score and refreshes latest_fitness_score when
// it is the newest one.
func (r *ProfileRepo) RecordFitnessScore(ctx context.Context, s *model.FitnessScore) (model.UserProfile, error) {
	var out model.UserProfile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, s.UserID)
		if err != nil {
			return err
		}
		if s.CalculatedAt.IsZero() {
			s.CalculatedAt = time.Now().UTC()
		}
		var newer int64
		if err := tx.Model(&model.FitnessScore{}).
			Where("user_id = ? AND calculated_at > ?", s.UserID, s.CalculatedAt).
			Count(&newer).Error; err != nil {
			return err
		}
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		if newer == 0 {
			if err := tx.Model(&p).Update("latest_fitness_score", s.Score).Error; err != nil {
				return err
			}
		}
		out, err = firstProfile(tx, s.UserID)
		return err
	})
	return out, err
}

// ListFitnessScores returns scores, newest first.
func (r *ProfileRepo) ListFitnessScores(ctx context.Context, userID uuid.UUID) ([]model.FitnessScore, error) {
	var out []model.FitnessScore
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("calculated_at desc").Find(&out).Error
	return out, err
}
