package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/unxchange/auth-service/internal/httputil"
	"github.com/unxchange/auth-service/internal/logging"
	"github.com/unxchange/auth-service/internal/user"
)

// Handler contains HTTP handlers for the authentication endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a successful login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the public view of a user; it never carries the
// hashed secret.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role.String(),
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account. Role defaults to student when omitted.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration payload"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Failure      503 {object} httputil.ErrorResponse "Storage unavailable"
// @Router       /api/v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.respondRegisterError(w, logger, err)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, toUserResponse(newUser), http.StatusCreated)
}

func (h *Handler) respondRegisterError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		logger.Warn("registration failed: email already registered")
		httputil.RespondErrorWithCode(w, "email already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, ErrNameRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNameRequired, http.StatusBadRequest)
	case errors.Is(err, ErrEmailRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmailFormat):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooShort):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
	case errors.Is(err, user.ErrInvalidRole):
		httputil.RespondErrorWithCode(w, "role must be student, professional or administrator", httputil.CodeInvalidRole, http.StatusBadRequest)
	case errors.Is(err, user.ErrUnavailable):
		logger.Error("registration failed: storage unavailable", "error", err.Error())
		httputil.RespondErrorWithCode(w, "service temporarily unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
	default:
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      503 {object} httputil.ErrorResponse "Storage unavailable"
// @Router       /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "incorrect email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, user.ErrUnavailable) {
			logger.Error("login failed: storage unavailable", "error", err.Error())
			httputil.RespondErrorWithCode(w, "service temporarily unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, http.StatusOK)
}

// GetUser handles authenticated lookup by email
// @Summary      Get user by email
// @Description  Look up a single user by exact email match
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email query string true "Email address"
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      503 {object} httputil.ErrorResponse "Storage unavailable"
// @Router       /api/v1/auth/user [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.RespondErrorWithCode(w, "email query parameter is required", httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}

	found, err := h.service.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("user lookup failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "service temporarily unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	httputil.RespondJSON(w, toUserResponse(found), http.StatusOK)
}

// ListUsers handles the authenticated listing of all users
// @Summary      List all users
// @Description  Return every registered user. Requires a valid token; no role restriction.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      503 {object} httputil.ErrorResponse "Storage unavailable"
// @Router       /api/v1/auth/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error("user listing failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "service temporarily unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	views := make([]UserResponse, 0, len(users))
	for _, u := range users {
		views = append(views, toUserResponse(u))
	}

	httputil.RespondJSON(w, views, http.StatusOK)
}
