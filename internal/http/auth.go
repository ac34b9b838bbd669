package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"perfpredict/internal/crypto"
	"perfpredict/internal/metrics"
	"perfpredict/internal/model"
	"perfpredict/internal/repository"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleSigninRequest struct {
	IDToken string `json:"idToken"`
}

type authResponse struct {
	Token   string      `json:"token"`
	Faculty facultyView `json:"faculty"`
}

type facultyView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "validation_failed", "valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "validation_failed", "password must be at least 6 characters")
		return
	}

	// Fast-path duplicate check for a friendly error; the store's unique
	// index on email is what actually prevents concurrent duplicates.
	if _, err := s.store.GetFacultyByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "duplicate_identity", "faculty already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "identity store unavailable")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "password hashing failed")
		return
	}

	faculty := model.Faculty{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateFaculty(r.Context(), faculty); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "duplicate_identity", "faculty already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "identity store unavailable")
		return
	}

	token, err := s.tokens.Issue(faculty.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", "token issuance failed")
		return
	}
	metrics.TokensIssued.WithLabelValues("signup").Inc()

	writeJSON(w, http.StatusCreated, authResponse{Token: token, Faculty: viewOf(faculty)})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "email and password are required")
		return
	}

	faculty, err := s.store.GetFacultyByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Identical response for unknown email and wrong password:
			// nothing leaks about account existence.
			metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "identity store unavailable")
		return
	}

	if err := crypto.CheckPassword(faculty.PasswordHash, req.Password); err != nil {
		metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(faculty.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", "token issuance failed")
		return
	}
	metrics.TokensIssued.WithLabelValues("signin").Inc()

	writeJSON(w, http.StatusOK, authResponse{Token: token, Faculty: viewOf(faculty)})
}

func (s *Server) handleGoogleSignin(w http.ResponseWriter, r *http.Request) {
	var req googleSigninRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		writeError(w, http.StatusBadRequest, "missing_assertion", "idToken is required")
		return
	}
	if s.google == nil {
		writeError(w, http.StatusInternalServerError, "google_not_configured", "federated login is not configured")
		return
	}

	assertion, err := s.google.Verify(r.Context(), req.IDToken)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("invalid_assertion").Inc()
		writeError(w, http.StatusUnauthorized, "invalid_assertion", "identity assertion could not be verified")
		return
	}
	if !assertion.EmailVerified {
		// Federated login must not bypass email ownership proof.
		metrics.AuthFailures.WithLabelValues("email_not_verified").Inc()
		writeError(w, http.StatusUnauthorized, "email_not_verified", "email not verified by identity provider")
		return
	}

	email := normalizeEmail(assertion.Email)
	if email == "" {
		writeError(w, http.StatusUnauthorized, "invalid_assertion", "assertion carries no email")
		return
	}

	faculty, err := s.resolveFederatedFaculty(r, email, assertion.Name, assertion.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_unavailable", "identity store unavailable")
		return
	}

	token, err := s.tokens.Issue(faculty.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", "token issuance failed")
		return
	}
	metrics.TokensIssued.WithLabelValues("google").Inc()

	writeJSON(w, http.StatusOK, authResponse{Token: token, Faculty: viewOf(faculty)})
}

// resolveFederatedFaculty maps a verified assertion onto a local identity:
// create on first login, link the subject on first federated login by an
// existing local account, otherwise pass through.
func (s *Server) resolveFederatedFaculty(r *http.Request, email, name, subject string) (model.Faculty, error) {
	faculty, err := s.store.GetFacultyByEmail(r.Context(), email)
	switch {
	case err == nil:
		if faculty.GoogleID == nil {
			if err := s.store.AttachGoogleSubject(r.Context(), faculty.ID, subject); err != nil {
				return model.Faculty{}, err
			}
			faculty.GoogleID = &subject
		}
		return faculty, nil
	case errors.Is(err, repository.ErrNotFound):
	default:
		return model.Faculty{}, err
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	// A federated-only account gets an unguessable placeholder credential;
	// it can never authenticate by password.
	placeholder, err := crypto.RandomPassword()
	if err != nil {
		return model.Faculty{}, err
	}
	hash, err := crypto.HashPassword(placeholder)
	if err != nil {
		return model.Faculty{}, err
	}

	faculty = model.Faculty{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		GoogleID:     &subject,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateFaculty(r.Context(), faculty); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost a concurrent first-login race; the winner's record is ours.
			return s.store.GetFacultyByEmail(r.Context(), email)
		}
		return model.Faculty{}, err
	}
	return faculty, nil
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	faculty, err := s.store.GetFacultyByID(r.Context(), facultyFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "faculty_not_found", "faculty not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_unavailable", "identity store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(faculty))
}

func viewOf(faculty model.Faculty) facultyView {
	return facultyView{ID: faculty.ID, Name: faculty.Name, Email: faculty.Email}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
