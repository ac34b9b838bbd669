package model

import "time"

// Faculty is the authenticated principal. GoogleID is set once on first
// federated login and never reassigned.
type Faculty struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	GoogleID     *string
	CreatedAt    time.Time
}

type Student struct {
	ID                     string
	FacultyID              string
	StudentName            string
	EnrollmentNumber       string
	Age                    int
	Gender                 string
	Midsem1Marks           float64
	Midsem2Marks           float64
	ComprehensiveExamMarks float64
	AttendancePercentage   float64
	StudyHoursPerWeek      float64
	TotalBacklogs          int
	HasPartTimeJob         string
	CurrentGPA             float64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// PredictionInput is the normalized feature snapshot stored alongside every
// prediction, persisted as a JSONB document.
type PredictionInput struct {
	Semester             int     `json:"semester"`
	Department           string  `json:"department"`
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	StudyHoursPerWeek    float64 `json:"study_hours_per_week"`
	Backlogs             int     `json:"backlogs"`
	PartTimeWork         string  `json:"part_time_work"`
	PreviousCGPA         float64 `json:"previous_cgpa"`
	AvgExamMarks         float64 `json:"avg_exam_marks"`
	G1Internal           float64 `json:"g1_internal"`
	G2Internal           float64 `json:"g2_internal"`
	FinalExamScore       float64 `json:"final_exam_score"`
	ParentEducationLevel string  `json:"parent_education_level"`
}

type Prediction struct {
	ID                string
	FacultyID         string
	StudentName       string
	Input             PredictionInput
	PredictedCGPA     float64
	AcademicRiskLevel string
	Confidence        float64
	CreatedAt         time.Time
}
