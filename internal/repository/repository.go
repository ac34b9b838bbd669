package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfpredict/internal/model"
)

var (
	ErrNotFound       = errors.New("repository: not found")
	ErrDuplicateEmail = errors.New("repository: email already registered")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateFaculty(ctx context.Context, faculty model.Faculty) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faculties (id, name, email, password_hash, google_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, faculty.ID, faculty.Name, faculty.Email, faculty.PasswordHash, faculty.GoogleID, faculty.CreatedAt)
	if isUniqueViolation(err) {
		// The unique index on email is the actual duplicate enforcement;
		// any earlier existence check is only a fast path.
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetFacultyByEmail(ctx context.Context, email string) (model.Faculty, error) {
	var faculty model.Faculty
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, google_id, created_at
		FROM faculties
		WHERE email = $1
	`, email)
	err := row.Scan(
		&faculty.ID,
		&faculty.Name,
		&faculty.Email,
		&faculty.PasswordHash,
		&faculty.GoogleID,
		&faculty.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Faculty{}, ErrNotFound
	}
	return faculty, err
}

func (s *Store) GetFacultyByID(ctx context.Context, facultyID string) (model.Faculty, error) {
	var faculty model.Faculty
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, google_id, created_at
		FROM faculties
		WHERE id = $1
	`, facultyID)
	err := row.Scan(
		&faculty.ID,
		&faculty.Name,
		&faculty.Email,
		&faculty.PasswordHash,
		&faculty.GoogleID,
		&faculty.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Faculty{}, ErrNotFound
	}
	return faculty, err
}

func (s *Store) AttachGoogleSubject(ctx context.Context, facultyID, subject string) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE faculties
		SET google_id = $1
		WHERE id = $2 AND google_id IS NULL
	`, subject, facultyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateStudent(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (
			id, faculty_id, student_name, enrollment_number, age, gender,
			midsem1_marks, midsem2_marks, comprehensive_exam_marks,
			attendance_percentage, study_hours_per_week, total_backlogs,
			has_part_time_job, current_gpa, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, student.ID, student.FacultyID, student.StudentName, student.EnrollmentNumber,
		student.Age, student.Gender, student.Midsem1Marks, student.Midsem2Marks,
		student.ComprehensiveExamMarks, student.AttendancePercentage,
		student.StudyHoursPerWeek, student.TotalBacklogs, student.HasPartTimeJob,
		student.CurrentGPA, student.CreatedAt, student.UpdatedAt)
	return err
}

func (s *Store) ListStudents(ctx context.Context, facultyID string) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, faculty_id, student_name, enrollment_number, age, gender,
		       midsem1_marks, midsem2_marks, comprehensive_exam_marks,
		       attendance_percentage, study_hours_per_week, total_backlogs,
		       has_part_time_job, current_gpa, created_at, updated_at
		FROM students
		WHERE faculty_id = $1
		ORDER BY created_at DESC
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, facultyID, studentID string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, faculty_id, student_name, enrollment_number, age, gender,
		       midsem1_marks, midsem2_marks, comprehensive_exam_marks,
		       attendance_percentage, study_hours_per_week, total_backlogs,
		       has_part_time_job, current_gpa, created_at, updated_at
		FROM students
		WHERE id = $1 AND faculty_id = $2
	`, studentID, facultyID)
	student, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Student{}, ErrNotFound
	}
	return student, err
}

func (s *Store) UpdateStudent(ctx context.Context, student model.Student) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE students
		SET student_name = $1, enrollment_number = $2, age = $3, gender = $4,
		    midsem1_marks = $5, midsem2_marks = $6, comprehensive_exam_marks = $7,
		    attendance_percentage = $8, study_hours_per_week = $9,
		    total_backlogs = $10, has_part_time_job = $11, current_gpa = $12,
		    updated_at = $13
		WHERE id = $14 AND faculty_id = $15
	`, student.StudentName, student.EnrollmentNumber, student.Age, student.Gender,
		student.Midsem1Marks, student.Midsem2Marks, student.ComprehensiveExamMarks,
		student.AttendancePercentage, student.StudyHoursPerWeek, student.TotalBacklogs,
		student.HasPartTimeJob, student.CurrentGPA, student.UpdatedAt,
		student.ID, student.FacultyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, facultyID, studentID string) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM students WHERE id = $1 AND faculty_id = $2
	`, studentID, facultyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreatePrediction(ctx context.Context, prediction model.Prediction) error {
	input, err := json.Marshal(prediction.Input)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO predictions (
			id, faculty_id, student_name, input_data,
			predicted_cgpa, academic_risk_level, confidence, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, prediction.ID, prediction.FacultyID, prediction.StudentName, input,
		prediction.PredictedCGPA, prediction.AcademicRiskLevel,
		prediction.Confidence, prediction.CreatedAt)
	return err
}

func (s *Store) ListPredictions(ctx context.Context, facultyID string) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, faculty_id, student_name, input_data,
		       predicted_cgpa, academic_risk_level, confidence, created_at
		FROM predictions
		WHERE faculty_id = $1
		ORDER BY created_at DESC
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]model.Prediction, 0)
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, prediction)
	}
	return predictions, rows.Err()
}

func (s *Store) GetPrediction(ctx context.Context, facultyID, predictionID string) (model.Prediction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, faculty_id, student_name, input_data,
		       predicted_cgpa, academic_risk_level, confidence, created_at
		FROM predictions
		WHERE id = $1 AND faculty_id = $2
	`, predictionID, facultyID)
	prediction, err := scanPrediction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Prediction{}, ErrNotFound
	}
	return prediction, err
}

func scanStudent(row pgx.Row) (model.Student, error) {
	var student model.Student
	err := row.Scan(
		&student.ID,
		&student.FacultyID,
		&student.StudentName,
		&student.EnrollmentNumber,
		&student.Age,
		&student.Gender,
		&student.Midsem1Marks,
		&student.Midsem2Marks,
		&student.ComprehensiveExamMarks,
		&student.AttendancePercentage,
		&student.StudyHoursPerWeek,
		&student.TotalBacklogs,
		&student.HasPartTimeJob,
		&student.CurrentGPA,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	return student, err
}

func scanPrediction(row pgx.Row) (model.Prediction, error) {
	var (
		prediction model.Prediction
		input      []byte
	)
	err := row.Scan(
		&prediction.ID,
		&prediction.FacultyID,
		&prediction.StudentName,
		&input,
		&prediction.PredictedCGPA,
		&prediction.AcademicRiskLevel,
		&prediction.Confidence,
		&prediction.CreatedAt,
	)
	if err != nil {
		return model.Prediction{}, err
	}
	if err := json.Unmarshal(input, &prediction.Input); err != nil {
		return model.Prediction{}, err
	}
	return prediction, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
