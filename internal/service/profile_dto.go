package service

import (
	"time"

	"github.com/kashmau/track-fitness/internal/model"
)

const dateLayout = "2006-01-02"

// ProfileInput is the body of POST and PUT /userProfile.  Nil fields are
// left untouched on update.
type ProfileInput struct {
	FirstName            *string   `json:"firstName"`
	LastName             *string   `json:"lastName"`
	DateOfBirth          *string   `json:"dateOfBirth"` // YYYY-MM-DD
	Gender               *string   `json:"gender"`
	DietPreference       *string   `json:"dietPreference"`
	Allergies            *[]string `json:"allergies"`
	NotificationsEnabled *bool     `json:"notificationsEnabled"`
	Timezone             *string   `json:"timezone"`
}

// ProfileView is the JSON rendering of a profile.
type ProfileView struct {
	UserID               string    `json:"userId"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	DateOfBirth          string    `json:"dateOfBirth,omitempty"`
	Gender               string    `json:"gender,omitempty"`
	DietPreference       string    `json:"dietPreference,omitempty"`
	Allergies            []string  `json:"allergies"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	Timezone             string    `json:"timezone,omitempty"`
	LatestWeight         *float64  `json:"latestWeight,omitempty"`
	LatestSystolicBP     *int      `json:"latestSystolicBP,omitempty"`
	LatestDiastolicBP    *int      `json:"latestDiastolicBP,omitempty"`
	LatestSugar          *float64  `json:"latestSugar,omitempty"`
	LatestFitnessScore   *int      `json:"latestFitnessScore,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func toProfileView(p model.UserProfile) ProfileView {
	v := ProfileView{
		UserID:               p.UserID.String(),
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Gender:               p.Gender,
		DietPreference:       p.DietPreference,
		Allergies:            []string(p.Allergies),
		NotificationsEnabled: p.NotificationsEnabled,
		Timezone:             p.Timezone,
		LatestWeight:         p.LatestWeight,
		LatestSystolicBP:     p.LatestSystolicBP,
		LatestDiastolicBP:    p.LatestDiastolicBP,
		LatestSugar:          p.LatestSugar,
		LatestFitnessScore:   p.LatestFitnessScore,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if v.Allergies == nil {
		v.Allergies = []string{}
	}
	if p.DateOfBirth != nil {
		v.DateOfBirth = p.DateOfBirth.Format(dateLayout)
	}
	return v
}

type GoalInput struct {
	GoalName        string   `json:"goalName"`
	ActivityLevel   string   `json:"activityLevel"`
	TargetGoalValue *float64 `json:"targetGoalValue"`
	TargetDate      string   `json:"targetDate"`
	Status          string   `json:"status"`
}

type GoalView struct {
	ID              uint      `json:"id"`
	GoalName        string    `json:"goalName"`
	ActivityLevel   string    `json:"activityLevel,omitempty"`
	TargetGoalValue *float64  `json:"targetGoalValue,omitempty"`
	TargetDate      string    `json:"targetDate,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toGoalView(g model.Goal) GoalView {
	v := GoalView{
		ID:              g.ID,
		GoalName:        g.GoalName,
		ActivityLevel:   g.ActivityLevel,
		TargetGoalValue: g.TargetGoalValue,
		Status:          g.Status,
		CreatedAt:       g.CreatedAt,
	}
	if g.TargetDate != nil {
		v.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return v
}

type HealthInput struct {
	HealthIssueType string `json:"healthIssueType"`
	Description     string `json:"description"`
	Severity        string `json:"severity"`
	Status          string `json:"status"`
}

type HealthView struct {
	ID              uint      `json:"id"`
	HealthIssueType string    `json:"healthIssueType"`
	Description     string    `json:"description,omitempty"`
	Severity        string    `json:"severity,omitempty"`
	Status          string    `json:"status,omitempty"`
	ReportedAt      time.Time `json:"reportedAt"`
}

func toHealthView(h model.HealthHistory) HealthView {
	return HealthView{
		ID:              h.ID,
		HealthIssueType: h.HealthIssueType,
		Description:     h.Description,
		Severity:        h.Severity,
		Status:          h.Status,
		ReportedAt:      h.ReportedAt,
	}
}

// MetricInput records one measurement.  Which value fields are required
// depends on Type.
type MetricInput struct {
	Type        string     `json:"type"`
	Height      *float64   `json:"height"`
	Weight      *float64   `json:"weight"`
	BodyFat     *float64   `json:"bodyFat"`
	SystolicBP  *int       `json:"systolicBP"`
	DiastolicBP *int       `json:"diastolicBP"`
	BloodSugar  *float64   `json:"bloodSugar"`
	RecordedAt  *time.Time `json:"recordedAt"`
}

type MetricView struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Height      *float64  `json:"height,omitempty"`
	Weight      *float64  `json:"weight,omitempty"`
	BodyFat     *float64  `json:"bodyFat,omitempty"`
	SystolicBP  *int      `json:"systolicBP,omitempty"`
	DiastolicBP *int      `json:"diastolicBP,omitempty"`
	BloodSugar  *float64  `json:"bloodSugar,omitempty"`
	RecordedAt  time.Time `json:"recordedAt"`
}

func toMetricView(m model.Metric) MetricView {
	return MetricView{
		ID:          m.ID,
		Type:        m.Type,
		Height:      m.Height,
		Weight:      m.Weight,
		BodyFat:     m.BodyFat,
		SystolicBP:  m.SystolicBP,
		DiastolicBP: m.DiastolicBP,
		BloodSugar:  m.BloodSugar,
		RecordedAt:  m.RecordedAt,
	}
}

type FitnessScoreInput struct {
	Score        int        `json:"score"`
	CalculatedAt *time.Time `json:"calculatedAt"`
}

type FitnessScoreView struct {
	ID           uint      `json:"id"`
	Score        int       `json:"score"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

func toFitnessScoreView(s model.FitnessScore) FitnessScoreView {
	return FitnessScoreView{ID: s.ID, Score: s.Score, CalculatedAt: s.CalculatedAt}
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, x := range in {
		out = append(out, f(x))
	}
	return out
}
