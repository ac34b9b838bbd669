package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perfpredict/internal/auth"
	"perfpredict/internal/config"
	"perfpredict/internal/metrics"
	"perfpredict/internal/ml"
	"perfpredict/internal/model"
	"perfpredict/internal/oidc"
)

// Store is the persistence surface the server needs: find-by-field, insert
// and update on faculty identities plus faculty-scoped access to students
// and predictions.
type Store interface {
	CreateFaculty(ctx context.Context, faculty model.Faculty) error
	GetFacultyByEmail(ctx context.Context, email string) (model.Faculty, error)
	GetFacultyByID(ctx context.Context, facultyID string) (model.Faculty, error)
	AttachGoogleSubject(ctx context.Context, facultyID, subject string) error

	CreateStudent(ctx context.Context, student model.Student) error
	ListStudents(ctx context.Context, facultyID string) ([]model.Student, error)
	GetStudent(ctx context.Context, facultyID, studentID string) (model.Student, error)
	UpdateStudent(ctx context.Context, student model.Student) error
	DeleteStudent(ctx context.Context, facultyID, studentID string) error

	CreatePrediction(ctx context.Context, prediction model.Prediction) error
	ListPredictions(ctx context.Context, facultyID string) ([]model.Prediction, error)
	GetPrediction(ctx context.Context, facultyID, predictionID string) (model.Prediction, error)
}

// AssertionVerifier validates federated identity assertions.
type AssertionVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (oidc.Assertion, error)
}

// Predictor scores one feature vector against the external model service.
type Predictor interface {
	Predict(ctx context.Context, features ml.FeatureVector) (ml.Result, error)
}

type Server struct {
	cfg       config.Config
	store     Store
	tokens    *auth.Issuer
	google    AssertionVerifier // nil when federated login is not configured
	predictor Predictor
}

func NewServer(cfg config.Config, store Store, tokens *auth.Issuer, google AssertionVerifier, predictor Predictor) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		tokens:    tokens,
		google:    google,
		predictor: predictor,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger, recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/signin", s.handleSignin)
	r.Post("/auth/google", s.handleGoogleSignin)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.Route("/students", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListStudents)
		r.Post("/", s.handleCreateStudent)
		r.Get("/{studentId}", s.handleGetStudent)
		r.Put("/{studentId}", s.handleUpdateStudent)
		r.Delete("/{studentId}", s.handleDeleteStudent)
	})

	r.Route("/predictions", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListPredictions)
		r.Post("/", s.handleCreatePrediction)
		r.Get("/{predictionId}", s.handleGetPrediction)
	})

	return r
}

// authMiddleware gates every protected route: no bearer header or a failed
// verification rejects the request before it reaches a handler, and the
// verified faculty ID is the only scoping identity handlers may use.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			writeError(w, http.StatusUnauthorized, "missing_token", "authorization bearer token required")
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
			return
		}

		ctx := context.WithValue(r.Context(), facultyKey{}, claims.FacultyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type facultyKey struct{}

func facultyFromContext(ctx context.Context) string {
	facultyID, _ := ctx.Value(facultyKey{}).(string)
	return facultyID
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
