package http

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"perfpredict/internal/metrics"
	"perfpredict/internal/ml"
	"perfpredict/internal/model"
	"perfpredict/internal/repository"
)

type predictionRequest struct {
	StudentName            string  `json:"studentName"`
	EnrollmentNumber       string  `json:"enrollmentNumber"`
	Age                    int     `json:"age"`
	Gender                 string  `json:"gender"`
	Department             string  `json:"department"`
	ParentEducationLevel   string  `json:"parentEducationLevel"`
	Midsem1Marks           float64 `json:"midsem1Marks"`
	Midsem2Marks           float64 `json:"midsem2Marks"`
	ComprehensiveExamMarks float64 `json:"comprehensiveExamMarks"`
	AttendancePercentage   float64 `json:"attendancePercentage"`
	StudyHoursPerWeek      float64 `json:"studyHoursPerWeek"`
	TotalBacklogs          int     `json:"totalBacklogs"`
	HasPartTimeJob         string  `json:"hasPartTimeJob"`
	CurrentGPA             float64 `json:"currentGPA"`
}

type predictionView struct {
	ID                string                `json:"id"`
	StudentName       string                `json:"studentName"`
	InputData         model.PredictionInput `json:"inputData"`
	PredictedCGPA     float64               `json:"predictedCGPA"`
	AcademicRiskLevel string                `json:"academicRiskLevel"`
	Confidence        float64               `json:"confidence"`
	CreatedAt         int64                 `json:"createdAt"`
}

func (req *predictionRequest) validate() string {
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.HasPartTimeJob = strings.ToLower(strings.TrimSpace(req.HasPartTimeJob))

	switch {
	case req.StudentName == "":
		return "studentName is required"
	case req.Age <= 0:
		return "age must be positive"
	case !inRange(req.Midsem1Marks, 0, 100):
		return "midsem1Marks must be between 0 and 100"
	case !inRange(req.Midsem2Marks, 0, 100):
		return "midsem2Marks must be between 0 and 100"
	case !inRange(req.ComprehensiveExamMarks, 0, 100):
		return "comprehensiveExamMarks must be between 0 and 100"
	case !inRange(req.AttendancePercentage, 0, 100):
		return "attendancePercentage must be between 0 and 100"
	case req.StudyHoursPerWeek < 0:
		return "studyHoursPerWeek must not be negative"
	case req.TotalBacklogs < 0:
		return "totalBacklogs must not be negative"
	case !inRange(req.CurrentGPA, 0, 10):
		return "currentGPA must be between 0 and 10"
	}
	return ""
}

// buildFeatures normalizes the request into the vector the model service
// expects, the same way the data was prepared when the models were trained.
func (req *predictionRequest) buildFeatures() ml.FeatureVector {
	gender := "Male"
	if req.Gender == "female" {
		gender = "Female"
	}
	department := strings.ToUpper(strings.TrimSpace(req.Department))
	if department == "" {
		department = "CSE"
	}
	partTime := "No"
	if req.HasPartTimeJob == "yes" {
		partTime = "Yes"
	}
	parentEducation := strings.TrimSpace(req.ParentEducationLevel)
	if parentEducation == "" {
		parentEducation = "Graduate"
	}
	semester := int(math.Round(req.CurrentGPA))
	if semester < 1 {
		semester = 1
	}
	if semester > 8 {
		semester = 8
	}

	return ml.FeatureVector{
		StudentName:          req.StudentName,
		EnrollmentNo:         req.EnrollmentNumber,
		Semester:             semester,
		Department:           department,
		Age:                  req.Age,
		Gender:               gender,
		G1Internal:           req.Midsem1Marks,
		G2Internal:           req.Midsem2Marks,
		FinalExamScore:       req.ComprehensiveExamMarks,
		AttendancePercentage: req.AttendancePercentage,
		StudyHoursPerWeek:    req.StudyHoursPerWeek,
		Backlogs:             req.TotalBacklogs,
		PartTimeWork:         partTime,
		PreviousCGPA:         req.CurrentGPA,
		ParentEducationLevel: parentEducation,
		AcademicRiskLevel:    "Medium",
	}
}

func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}
	if reason := req.validate(); reason != "" {
		writeError(w, http.StatusBadRequest, "validation_failed", reason)
		return
	}

	features := req.buildFeatures()
	result, err := s.predictor.Predict(r.Context(), features)
	if err != nil {
		var rejected *ml.RejectedError
		if errors.As(err, &rejected) {
			metrics.Predictions.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusBadRequest, "prediction_rejected", rejected.Detail)
			return
		}
		metrics.Predictions.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, "prediction_unavailable", "prediction service unavailable")
		return
	}
	metrics.Predictions.WithLabelValues("ok").Inc()

	avgExamMarks := (req.Midsem1Marks + req.Midsem2Marks + req.ComprehensiveExamMarks) / 3
	prediction := model.Prediction{
		ID:          uuid.NewString(),
		FacultyID:   facultyFromContext(r.Context()),
		StudentName: req.StudentName,
		Input: model.PredictionInput{
			Semester:             features.Semester,
			Department:           features.Department,
			Age:                  features.Age,
			Gender:               features.Gender,
			AttendancePercentage: features.AttendancePercentage,
			StudyHoursPerWeek:    features.StudyHoursPerWeek,
			Backlogs:             features.Backlogs,
			PartTimeWork:         features.PartTimeWork,
			PreviousCGPA:         features.PreviousCGPA,
			AvgExamMarks:         avgExamMarks,
			G1Internal:           features.G1Internal,
			G2Internal:           features.G2Internal,
			FinalExamScore:       features.FinalExamScore,
			ParentEducationLevel: features.ParentEducationLevel,
		},
		PredictedCGPA:     result.PredictedCGPA,
		AcademicRiskLevel: result.AcademicRiskLevel,
		Confidence:        result.Confidence,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.store.CreatePrediction(r.Context(), prediction); err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "prediction store unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, mapPredictionView(prediction))
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := s.store.ListPredictions(r.Context(), facultyFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "prediction store unavailable")
		return
	}

	views := make([]predictionView, 0, len(predictions))
	for _, prediction := range predictions {
		views = append(views, mapPredictionView(prediction))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	prediction, err := s.store.GetPrediction(r.Context(), facultyFromContext(r.Context()), chi.URLParam(r, "predictionId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prediction_not_found", "prediction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "prediction store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, mapPredictionView(prediction))
}

func mapPredictionView(prediction model.Prediction) predictionView {
	return predictionView{
		ID:                prediction.ID,
		StudentName:       prediction.StudentName,
		InputData:         prediction.Input,
		PredictedCGPA:     prediction.PredictedCGPA,
		AcademicRiskLevel: prediction.AcademicRiskLevel,
		Confidence:        prediction.Confidence,
		CreatedAt:         prediction.CreatedAt.Unix(),
	}
}
