package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"perfpredict/internal/model"
	"perfpredict/internal/repository"
)

type studentRequest struct {
	StudentName            string  `json:"studentName"`
	EnrollmentNumber       string  `json:"enrollmentNumber"`
	Age                    int     `json:"age"`
	Gender                 string  `json:"gender"`
	Midsem1Marks           float64 `json:"midsem1Marks"`
	Midsem2Marks           float64 `json:"midsem2Marks"`
	ComprehensiveExamMarks float64 `json:"comprehensiveExamMarks"`
	AttendancePercentage   float64 `json:"attendancePercentage"`
	StudyHoursPerWeek      float64 `json:"studyHoursPerWeek"`
	TotalBacklogs          int     `json:"totalBacklogs"`
	HasPartTimeJob         string  `json:"hasPartTimeJob"`
	CurrentGPA             float64 `json:"currentGPA"`
}

type studentView struct {
	ID                     string  `json:"id"`
	StudentName            string  `json:"studentName"`
	EnrollmentNumber       string  `json:"enrollmentNumber"`
	Age                    int     `json:"age"`
	Gender                 string  `json:"gender"`
	Midsem1Marks           float64 `json:"midsem1Marks"`
	Midsem2Marks           float64 `json:"midsem2Marks"`
	ComprehensiveExamMarks float64 `json:"comprehensiveExamMarks"`
	AttendancePercentage   float64 `json:"attendancePercentage"`
	StudyHoursPerWeek      float64 `json:"studyHoursPerWeek"`
	TotalBacklogs          int     `json:"totalBacklogs"`
	HasPartTimeJob         string  `json:"hasPartTimeJob"`
	CurrentGPA             float64 `json:"currentGPA"`
	CreatedAt              int64   `json:"createdAt"`
	UpdatedAt              int64   `json:"updatedAt"`
}

// validate returns a human-readable reason when the record is not acceptable.
func (req *studentRequest) validate() string {
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.EnrollmentNumber = strings.TrimSpace(req.EnrollmentNumber)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.HasPartTimeJob = strings.ToLower(strings.TrimSpace(req.HasPartTimeJob))

	switch {
	case req.StudentName == "":
		return "studentName is required"
	case req.EnrollmentNumber == "":
		return "enrollmentNumber is required"
	case req.Age <= 0:
		return "age must be positive"
	case req.Gender != "male" && req.Gender != "female" && req.Gender != "other":
		return "gender must be male, female or other"
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
	case req.HasPartTimeJob != "yes" && req.HasPartTimeJob != "no":
		return "hasPartTimeJob must be yes or no"
	case !inRange(req.CurrentGPA, 0, 10):
		return "currentGPA must be between 0 and 10"
	}
	return ""
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}
	if reason := req.validate(); reason != "" {
		writeError(w, http.StatusBadRequest, "validation_failed", reason)
		return
	}

	now := time.Now().UTC()
	student := req.toModel()
	student.ID = uuid.NewString()
	student.FacultyID = facultyFromContext(r.Context())
	student.CreatedAt = now
	student.UpdatedAt = now

	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, mapStudentView(student))
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context(), facultyFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}

	views := make([]studentView, 0, len(students))
	for _, student := range students {
		views = append(views, mapStudentView(student))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.store.GetStudent(r.Context(), facultyFromContext(r.Context()), chi.URLParam(r, "studentId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found", "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, mapStudentView(student))
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}
	if reason := req.validate(); reason != "" {
		writeError(w, http.StatusBadRequest, "validation_failed", reason)
		return
	}

	student := req.toModel()
	student.ID = chi.URLParam(r, "studentId")
	student.FacultyID = facultyFromContext(r.Context())
	student.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateStudent(r.Context(), student); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found", "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}

	updated, err := s.store.GetStudent(r.Context(), student.FacultyID, student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, mapStudentView(updated))
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteStudent(r.Context(), facultyFromContext(r.Context()), chi.URLParam(r, "studentId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found", "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "student store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (req *studentRequest) toModel() model.Student {
	return model.Student{
		StudentName:            req.StudentName,
		EnrollmentNumber:       req.EnrollmentNumber,
		Age:                    req.Age,
		Gender:                 req.Gender,
		Midsem1Marks:           req.Midsem1Marks,
		Midsem2Marks:           req.Midsem2Marks,
		ComprehensiveExamMarks: req.ComprehensiveExamMarks,
		AttendancePercentage:   req.AttendancePercentage,
		StudyHoursPerWeek:      req.StudyHoursPerWeek,
		TotalBacklogs:          req.TotalBacklogs,
		HasPartTimeJob:         req.HasPartTimeJob,
		CurrentGPA:             req.CurrentGPA,
	}
}

func mapStudentView(student model.Student) studentView {
	return studentView{
		ID:                     student.ID,
		StudentName:            student.StudentName,
		EnrollmentNumber:       student.EnrollmentNumber,
		Age:                    student.Age,
		Gender:                 student.Gender,
		Midsem1Marks:           student.Midsem1Marks,
		Midsem2Marks:           student.Midsem2Marks,
		ComprehensiveExamMarks: student.ComprehensiveExamMarks,
		AttendancePercentage:   student.AttendancePercentage,
		StudyHoursPerWeek:      student.StudyHoursPerWeek,
		TotalBacklogs:          student.TotalBacklogs,
		HasPartTimeJob:         student.HasPartTimeJob,
		CurrentGPA:             student.CurrentGPA,
		CreatedAt:              student.CreatedAt.Unix(),
		UpdatedAt:              student.UpdatedAt.Unix(),
	}
}

func inRange(value, min, max float64) bool {
	return value >= min && value <= max
}
