package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPredictSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var features FeatureVector
		if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if features.StudentName != "Jane" || features.Department != "CSE" {
			t.Fatalf("unexpected features: %+v", features)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_CGPA": 8.2, "academic_risk_level": "Low", "confidence": 0.91}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Predict(context.Background(), FeatureVector{StudentName: "Jane", Department: "CSE"})
	if err != nil {
		t.Fatalf("predict error: %v", err)
	}
	if result.PredictedCGPA != 8.2 {
		t.Fatalf("expected CGPA 8.2, got %v", result.PredictedCGPA)
	}
	if result.AcademicRiskLevel != "Low" {
		t.Fatalf("expected Low risk, got %s", result.AcademicRiskLevel)
	}
	if result.Confidence != 0.91 {
		t.Fatalf("expected confidence 0.91, got %v", result.Confidence)
	}
}

func TestPredictAlternateKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_cgpa": 6.5, "academicRiskLevel": "High", "confidence_score": 0.6}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Predict(context.Background(), FeatureVector{})
	if err != nil {
		t.Fatalf("predict error: %v", err)
	}
	if result.PredictedCGPA != 6.5 || result.AcademicRiskLevel != "High" || result.Confidence != 0.6 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPredictDefaultConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_cgpa": 7.0, "academic_risk_level": "Medium"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Predict(context.Background(), FeatureVector{})
	if err != nil {
		t.Fatalf("predict error: %v", err)
	}
	if result.Confidence != 0.75 {
		t.Fatalf("expected fallback confidence 0.75, got %v", result.Confidence)
	}
}

func TestPredictRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "field required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Predict(context.Background(), FeatureVector{})

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rejected.Status)
	}
	if rejected.Detail == "" {
		t.Fatalf("expected rejection detail to be preserved")
	}
}

func TestPredictServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Predict(context.Background(), FeatureVector{})
	if err == nil {
		t.Fatalf("expected error on 500 response")
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		t.Fatalf("a 500 is not a rejection: %v", err)
	}
}
