package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Metric types accepted by the profile service.
const (
	MetricBody  = "BODY"
	MetricBP    = "BP"
	MetricSugar = "SUGAR"
	MetricVital = "VITAL"
)

// Goal statuses.
const (
	GoalActive   = "ACTIVE"
	GoalAchieved = "ACHIEVED"
	GoalFailed   = "FAILED"
)

// UserProfile is the product-facing record of a user in the profile service.
// UserID is the credential id issued by the auth service; the two services do
// not share a database so nothing enforces that the id exists there.
// The Latest* columns cache the newest metric and fitness score values.
type UserProfile struct {
	UserID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FirstName            string     `gorm:"size:50"`
	LastName             string     `gorm:"size:50"`
	DateOfBirth          *time.Time `gorm:"type:date"`
	Gender               string     `gorm:"size:10"`
	DietPreference       string     `gorm:"size:50"`
	Allergies            datatypes.JSONSlice[string]
	NotificationsEnabled bool   `gorm:"not null"`
	Timezone             string `gorm:"size:50"`
	LatestWeight         *float64
	LatestSystolicBP     *int
	LatestDiastolicBP    *int
	LatestSugar          *float64
	LatestFitnessScore   *int
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Goals         []Goal          `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	HealthHistory []HealthHistory `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	Metrics       []Metric        `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	FitnessScores []FitnessScore  `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// Goal is a target the user is working towards.
type Goal struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"`
	GoalName        string    `gorm:"size:100"`
	ActivityLevel   string    `gorm:"size:50"`
	TargetGoalValue *float64
	TargetDate      *time.Time `gorm:"type:date"`
	Status          string     `gorm:"size:16;not null;default:ACTIVE"`
	CreatedAt       time.Time
}

func (Goal) TableName() string { return "goals" }

// HealthHistory is a reported health issue.
type HealthHistory struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"`
	HealthIssueType string    `gorm:"size:100"`
	Description     string
	Severity        string `gorm:"size:32"`
	Status          string `gorm:"size:32"` // ongoing, resolved
	ReportedAt      time.Time
	UpdatedAt       time.Time
}

func (HealthHistory) TableName() string { return "health_history" }

// Metric is one measurement.  Which value columns are set depends on Type.
type Metric struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Type        string    `gorm:"size:16;not null"`
	Height      *float64
	Weight      *float64
	BodyFat     *float64
	SystolicBP  *int
	DiastolicBP *int
	BloodSugar  *float64
	RecordedAt  time.Time `gorm:"index"`
}

func (Metric) TableName() string { return "metrics" }

// FitnessScore is a computed 0-100 score.
type FitnessScore struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Score        int       `gorm:"not null"`
	CalculatedAt time.Time `gorm:"index"`
}

func (FitnessScore) TableName() string { return "fitness_scores" }
