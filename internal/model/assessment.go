package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type AssessmentStatus string

const (
	StatusInProgress AssessmentStatus = "in_progress"
	StatusCompleted  AssessmentStatus = "completed"
)

// Question 单道选择题，answer 必须等于 options 中的某一项
// swagger:model Question
type Question struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	UserAnswer string   `json:"userAnswer"`
	IsCorrect  bool     `json:"isCorrect"`
}

// Assessment 一次职业能力测评。questions 的顺序即作答顺序。
// 完成之前 quizScore/improvementTip 为空。
// swagger:model Assessment
type Assessment struct {
	ID             string                        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         uint                          `gorm:"index;not null" json:"userId"`
	User           *User                         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Topic          string                        `gorm:"size:255;not null" json:"topic"`
	Level          Level                         `gorm:"size:20;not null" json:"level"`
	Questions      datatypes.JSONSlice[Question] `json:"questions"`
	Status         AssessmentStatus              `gorm:"size:20;index;not null;default:'in_progress'" json:"status"`
	QuizScore      *float64                      `json:"quizScore,omitempty"`
	ImprovementTip *string                       `gorm:"type:text" json:"improvementTip,omitempty"`
	CompletedAt    *time.Time                    `json:"completedAt,omitempty"`
	CreatedAt      time.Time                     `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = GenerateUUID()
	}
	if a.Status == "" {
		a.Status = StatusInProgress
	}
	return
}

func (a *Assessment) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// AssessmentPatch 评分完成后一次性写回的字段
type AssessmentPatch struct {
	Questions      []Question
	QuizScore      float64
	ImprovementTip string
	CompletedAt    time.Time
}

// AssessmentStatusCount 按状态统计
type AssessmentStatusCount struct {
	Status AssessmentStatus
	Count  int64
}
