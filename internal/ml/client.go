package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FeatureVector mirrors the request schema of the prediction service's
// /predict endpoint.
type FeatureVector struct {
	StudentName          string  `json:"Student_Name"`
	EnrollmentNo         string  `json:"Enrollment_No"`
	Semester             int     `json:"Semester"`
	Department           string  `json:"Department"`
	Age                  int     `json:"Age"`
	Gender               string  `json:"Gender"`
	G1Internal           float64 `json:"G1_Internal"`
	G2Internal           float64 `json:"G2_Internal"`
	FinalExamScore       float64 `json:"Final_Exam_Score"`
	AttendancePercentage float64 `json:"Attendance_Percentage"`
	StudyHoursPerWeek    float64 `json:"Study_Hours_Per_Week"`
	Backlogs             int     `json:"Backlogs"`
	PartTimeWork         string  `json:"Part_Time_Work"`
	PreviousCGPA         float64 `json:"Previous_CGPA"`
	ParentEducationLevel string  `json:"Parent_Education_Level"`
	AcademicRiskLevel    string  `json:"Academic_Risk_Level"`
}

type Result struct {
	PredictedCGPA     float64
	AcademicRiskLevel string
	Confidence        float64
}

// RejectedError carries the model service's own validation response so the
// caller can surface it instead of a generic failure.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ml: request rejected with status %d: %s", e.Status, e.Detail)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict submits one feature vector and returns the model's scoring. No
// retries: a failed call surfaces immediately to the caller.
func (c *Client) Predict(ctx context.Context, features FeatureVector) (Result, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Result{}, &RejectedError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(payload))}
	default:
		return Result{}, fmt.Errorf("ml: unexpected status %d", resp.StatusCode)
	}

	// The service has shipped responses under more than one set of keys;
	// accept all of them. predicted_cgpa also matches predicted_CGPA since
	// JSON field matching is case-insensitive.
	var wire struct {
		PredictedCGPA   float64 `json:"predicted_cgpa"`
		RiskLevel       string  `json:"academic_risk_level"`
		RiskLevelAlt    string  `json:"academicRiskLevel"`
		Confidence      float64 `json:"confidence"`
		ConfidenceScore float64 `json:"confidence_score"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Result{}, fmt.Errorf("ml: decoding response: %w", err)
	}

	result := Result{
		PredictedCGPA:     wire.PredictedCGPA,
		AcademicRiskLevel: wire.RiskLevel,
		Confidence:        wire.Confidence,
	}
	if result.AcademicRiskLevel == "" {
		result.AcademicRiskLevel = wire.RiskLevelAlt
	}
	if result.Confidence == 0 {
		result.Confidence = wire.ConfidenceScore
	}
	if result.Confidence == 0 {
		result.Confidence = 0.75
	}
	return result, nil
}
