package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kashmau/track-fitness/internal/model"
)

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserProfile, error)
	Create(ctx context.Context, p *model.UserProfile) error
	Update(ctx context.Context, userID uuid.UUID, apply func(*model.UserProfile)) (model.UserProfile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	AddGoal(ctx context.Context, g *model.Goal) error
	ListGoals(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	AddHealthRecord(ctx context.Context, h *model.HealthHistory) error
	ListHealthHistory(ctx context.Context, userID uuid.UUID) ([]model.HealthHistory, error)
	RecordMetric(ctx context.Context, m *model.Metric) (model.UserProfile, error)
	ListMetrics(ctx context.Context, userID uuid.UUID, metricType string, limit int) ([]model.Metric, error)
	RecordFitnessScore(ctx context.Context, s *model.FitnessScore) (model.UserProfile, error)
	ListFitnessScores(ctx context.Context, userID uuid.UUID) ([]model.FitnessScore, error)
}

// ProfileService maps request DTOs onto the profile store.  User ids arrive
// as strings from the identity middleware and are parsed here.
type ProfileService struct {
	Store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService { return &ProfileService{Store: store} }

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id must be a UUID", ErrInvalidInput)
	}
	return id, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
	}
	return &d, nil
}

// Get returns the caller's profile or repository.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (ProfileView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return ProfileView{}, err
	}
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return ProfileView{}, err
	}
	return toProfileView(p), nil
}

// Create stores a new profile.  Notifications default to on.
func (s *ProfileService) Create(ctx context.Context, userID string, in ProfileInput) (ProfileView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return ProfileView{}, err
	}
	p := model.UserProfile{UserID: id, NotificationsEnabled: true}
	if err := applyProfileInput(&p, in); err != nil {
		return ProfileView{}, err
	}
	if err := s.Store.Create(ctx, &p); err != nil {
		return ProfileView{}, err
	}
	return toProfileView(p), nil
}

// Update overwrites only the fields present in the input.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (ProfileView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return ProfileView{}, err
	}
	// validate before opening the transaction
	if err := applyProfileInput(&model.UserProfile{}, in); err != nil {
		return ProfileView{}, err
	}
	p, err := s.Store.Update(ctx, id, func(p *model.UserProfile) { _ = applyProfileInput(p, in) })
	if err != nil {
		return ProfileView{}, err
	}
	return toProfileView(p), nil
}

func applyProfileInput(p *model.UserProfile, in ProfileInput) error {
	if in.DateOfBirth != nil {
		dob, err := parseDate("dateOfBirth", *in.DateOfBirth)
		if err != nil {
			return err
		}
		p.DateOfBirth = dob
	}
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.DietPreference != nil {
		p.DietPreference = *in.DietPreference
	}
	if in.Allergies != nil {
		p.Allergies = append([]string{}, (*in.Allergies)...)
	}
	if in.NotificationsEnabled != nil {
		p.NotificationsEnabled = *in.NotificationsEnabled
	}
	if in.Timezone != nil {
		if _, err := time.LoadLocation(*in.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, *in.Timezone)
		}
		p.Timezone = *in.Timezone
	}
	return nil
}

// Delete removes the profile and its children.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	return s.Store.Delete(ctx, id)
}

func (s *ProfileService) AddGoal(ctx context.Context, userID string, in GoalInput) (GoalView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return GoalView{}, err
	}
	if strings.TrimSpace(in.GoalName) == "" {
		return GoalView{}, fmt.Errorf("%w: goalName is required", ErrInvalidInput)
	}
	status := strings.ToUpper(in.Status)
	switch status {
	case "", model.GoalActive, model.GoalAchieved, model.GoalFailed:
	default:
		return GoalView{}, fmt.Errorf("%w: unknown goal status %q", ErrInvalidInput, in.Status)
	}
	target, err := parseDate("targetDate", in.TargetDate)
	if err != nil {
		return GoalView{}, err
	}
	g := model.Goal{
		UserID:          id,
		GoalName:        in.GoalName,
		ActivityLevel:   in.ActivityLevel,
		TargetGoalValue: in.TargetGoalValue,
		TargetDate:      target,
		Status:          status,
	}
	if err := s.Store.AddGoal(ctx, &g); err != nil {
		return GoalView{}, err
	}
	return toGoalView(g), nil
}

func (s *ProfileService) ListGoals(ctx context.Context, userID string) ([]GoalView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	goals, err := s.Store.ListGoals(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapSlice(goals, toGoalView), nil
}

func (s *ProfileService) AddHealthRecord(ctx context.Context, userID string, in HealthInput) (HealthView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return HealthView{}, err
	}
	if strings.TrimSpace(in.HealthIssueType) == "" {
		return HealthView{}, fmt.Errorf("%w: healthIssueType is required", ErrInvalidInput)
	}
	h := model.HealthHistory{
		UserID:          id,
		HealthIssueType: in.HealthIssueType,
		Description:     in.Description,
		Severity:        in.Severity,
		Status:          in.Status,
	}
	if err := s.Store.AddHealthRecord(ctx, &h); err != nil {
		return HealthView{}, err
	}
	return toHealthView(h), nil
}

func (s *ProfileService) ListHealthHistory(ctx context.Context, userID string) ([]HealthView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.Store.ListHealthHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapSlice(list, toHealthView), nil
}

// RecordMetric validates the measurement against its type and stores it.
// The returned profile carries the refreshed latest snapshot.
func (s *ProfileService) RecordMetric(ctx context.Context, userID string, in MetricInput) (MetricView, ProfileView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return MetricView{}, ProfileView{}, err
	}
	typ := strings.ToUpper(in.Type)
	switch typ {
	case model.MetricBody:
		if in.Weight == nil && in.Height == nil && in.BodyFat == nil {
			return MetricView{}, ProfileView{}, fmt.Errorf("%w: BODY needs weight, height or bodyFat", ErrInvalidInput)
		}
	case model.MetricBP:
		if in.SystolicBP == nil || in.DiastolicBP == nil {
			return MetricView{}, ProfileView{}, fmt.Errorf("%w: BP needs systolicBP and diastolicBP", ErrInvalidInput)
		}
	case model.MetricSugar:
		if in.BloodSugar == nil {
			return MetricView{}, ProfileView{}, fmt.Errorf("%w: SUGAR needs bloodSugar", ErrInvalidInput)
		}
	case model.MetricVital:
	default:
		return MetricView{}, ProfileView{}, fmt.Errorf("%w: unknown metric type %q", ErrInvalidInput, in.Type)
	}
	m := model.Metric{
		UserID:      id,
		Type:        typ,
		Height:      in.Height,
		Weight:      in.Weight,
		BodyFat:     in.BodyFat,
		SystolicBP:  in.SystolicBP,
		DiastolicBP: in.DiastolicBP,
		BloodSugar:  in.BloodSugar,
	}
	if in.RecordedAt != nil {
		m.RecordedAt = in.RecordedAt.UTC()
	}
	p, err := s.Store.RecordMetric(ctx, &m)
	if err != nil {
		return MetricView{}, ProfileView{}, err
	}
	return toMetricView(m), toProfileView(p), nil
}

func (s *ProfileService) ListMetrics(ctx context.Context, userID, metricType string, limit int) ([]MetricView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.Store.ListMetrics(ctx, id, strings.ToUpper(metricType), limit)
	if err != nil {
		return nil, err
	}
	return mapSlice(list, toMetricView), nil
}

// RecordFitnessScore stores a 0-100 score.
func (s *ProfileService) RecordFitnessScore(ctx context.Context, userID string, in FitnessScoreInput) (FitnessScoreView, ProfileView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return FitnessScoreView{}, ProfileView{}, err
	}
	if in.Score < 0 || in.Score > 100 {
		return FitnessScoreView{}, ProfileView{}, fmt.Errorf("%w: score must be between 0 and 100", ErrInvalidInput)
	}
	fs := model.FitnessScore{UserID: id, Score: in.Score}
	if in.CalculatedAt != nil {
		fs.CalculatedAt = in.CalculatedAt.UTC()
	}
	p, err := s.Store.RecordFitnessScore(ctx, &fs)
	if err != nil {
		return FitnessScoreView{}, ProfileView{}, err
	}
	return toFitnessScoreView(fs), toProfileView(p), nil
}

func (s *ProfileService) ListFitnessScores(ctx context.Context, userID string) ([]FitnessScoreView, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.Store.ListFitnessScores(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapSlice(list, toFitnessScoreView), nil
}
