package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/sanitize"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	AUTH_SVC = "auth_svc"

	resetCodeTTL     = time.Hour
	minUsernameChars = 3
)

type AuthService struct {
	context.DefaultService

	users    UserStore
	sessions SessionStore
	mailer   Mailer
	limiter  Throttle
	jwtSvc   *JWTService
	clock    clock.Clock

	bcryptCost int
}

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.clock = clock.NewSystemClock()
	svc.bcryptCost = bcrypt.DefaultCost
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	pg := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.users = pg.Users()
	svc.sessions = pg.Sessions()
	svc.mailer = svc.Service(EMAIL_SVC).(*EmailService)
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

// ==================== AUTHENTICATION ====================

func (svc *AuthService) SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return nil, shared.NewBadRequestError(nil, "Invalid email address")
	}

	if err := svc.limiter.Allow(ratelimit.Signup, email); err != nil {
		return nil, err
	}

	username := sanitize.Username(req.Username)
	if len(username) < minUsernameChars {
		return nil, shared.NewBadRequestError(nil, "Username must be at least 3 characters")
	}

	exists, err := svc.users.UserExists(email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError(nil, "Email or username already taken")
	}

	hashed, err := svc.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Username: username,
		Password: hashed,
		Role:     shared.RoleUser,
	}
	if err := svc.users.CreateUser(user); err != nil {
		return nil, err
	}

	resp, err := svc.createSession(user)
	if err != nil {
		return nil, err
	}

	svc.limiter.Clear(ratelimit.Signup, email)

	log.WithField("user_id", user.ID).Info("User signed up")
	return resp, nil
}

func (svc *AuthService) SignIn(req dto.SignInRequest) (*dto.AuthResponse, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return nil, shared.NewBadRequestError(nil, "Invalid email address")
	}

	if err := svc.limiter.Allow(ratelimit.Login, email); err != nil {
		return nil, err
	}

	invalid := shared.NewUnauthorizedError(nil, "Invalid email or password")

	user, err := svc.users.GetUserByEmail(email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, shared.NewForbiddenError(nil, "Account is disabled")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, invalid
	}

	svc.limiter.Clear(ratelimit.Login, email)

	if err := svc.users.UpdateLastLogin(user.ID, svc.clock.Now()); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return svc.createSession(user)
}

func (svc *AuthService) SignOut(sessionID string) error {
	if sessionID == "" {
		return shared.NewUnauthorizedError(nil, "Unauthorized")
	}
	return svc.sessions.RevokeSession(sessionID, svc.clock.Now())
}

func (svc *AuthService) createSession(user *model.User) (*dto.AuthResponse, error) {
	now := svc.clock.Now()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create session")
	}

	session := &model.UserSession{
		ID:        id.String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(svc.jwtSvc.AccessTokenDuration),
		CreatedAt: now,
	}
	if err := svc.sessions.CreateSession(session); err != nil {
		return nil, err
	}

	token, expiresAt, err := svc.jwtSvc.ToJWT(user.ID, user.Role, session.ID, now)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	return &dto.AuthResponse{
		User: toProfileResponse(user),
		Token: dto.TokenPair{
			AccessToken: token,
			ExpiresIn:   int64(svc.jwtSvc.AccessTokenDuration.Seconds()),
			ExpiresAt:   expiresAt,
		},
	}, nil
}

// ==================== PASSWORD MANAGEMENT ====================

// ForgotPassword emails a reset code. Unknown addresses succeed silently so
// the endpoint cannot be used to discover accounts.
func (svc *AuthService) ForgotPassword(req dto.ForgotPasswordRequest) error {
	email := sanitize.Email(req.Email)
	if email == "" {
		return shared.NewBadRequestError(nil, "Invalid email address")
	}

	if err := svc.limiter.Allow(ratelimit.PasswordReset, email); err != nil {
		return err
	}

	user, err := svc.users.GetUserByEmail(email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return shared.NewInternalError(err, "Failed to generate reset code")
	}

	now := svc.clock.Now()
	resetCode := &model.PasswordResetCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(resetCodeTTL),
		CreatedAt: now,
	}
	if err := svc.sessions.CreateResetCode(resetCode); err != nil {
		return err
	}

	if err := svc.mailer.SendPasswordResetCode(user.Email, user.Username, code); err != nil {
		return shared.NewInternalError(err, "Failed to send reset email")
	}

	return nil
}

func (svc *AuthService) ResetPassword(req dto.ResetPasswordRequest) error {
	email := sanitize.Email(req.Email)
	if email == "" {
		return shared.NewBadRequestError(nil, "Invalid email address")
	}

	if err := svc.limiter.Allow(ratelimit.PasswordReset, email); err != nil {
		return err
	}

	invalid := shared.NewBadRequestError(nil, "Invalid or expired reset code")

	user, err := svc.users.GetUserByEmail(email)
	if err != nil {
		if shared.IsNotFound(err) {
			return invalid
		}
		return err
	}

	now := svc.clock.Now()
	resetCode, err := svc.sessions.GetValidResetCode(user.ID, strings.TrimSpace(req.Code), now)
	if err != nil {
		if shared.IsNotFound(err) {
			return invalid
		}
		return err
	}

	hashed, err := svc.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := svc.users.UpdatePassword(user.ID, hashed); err != nil {
		return err
	}
	if err := svc.sessions.MarkResetCodeUsed(resetCode.ID, now); err != nil {
		return err
	}
	if err := svc.sessions.RevokeUserSessions(user.ID, now); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to revoke sessions after password reset")
	}

	svc.limiter.Clear(ratelimit.PasswordReset, email)
	return nil
}

func (svc *AuthService) ChangePassword(userID string, req dto.ChangePasswordRequest) error {
	user, err := svc.users.GetUserByID(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return shared.NewBadRequestError(nil, "Current password is incorrect")
	}

	hashed, err := svc.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return svc.users.UpdatePassword(user.ID, hashed)
}

func (svc *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), svc.bcryptCost)
	if err != nil {
		return "", shared.NewInternalError(err, "Failed to hash password")
	}
	return string(hashed), nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ==================== PROFILE ====================

func (svc *AuthService) GetProfile(userID string) (*dto.ProfileResponse, error) {
	user, err := svc.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	profile := toProfileResponse(user)
	return &profile, nil
}

func (svc *AuthService) UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	user, err := svc.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := sanitize.Username(*req.Username)
		if len(username) < minUsernameChars {
			return nil, shared.NewBadRequestError(nil, "Username must be at least 3 characters")
		}
		if username != user.Username {
			taken, err := svc.users.IsUsernameTaken(username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, shared.NewConflictError(nil, "Username already taken")
			}
			user.Username = username
		}
	}

	if req.AvatarURL != nil {
		avatarURL := sanitize.URL(*req.AvatarURL)
		if avatarURL == "" && strings.TrimSpace(*req.AvatarURL) != "" {
			return nil, shared.NewBadRequestError(nil, "Invalid avatar URL")
		}
		user.AvatarURL = avatarURL
	}

	if err := svc.users.UpdateUser(user); err != nil {
		return nil, err
	}

	profile := toProfileResponse(user)
	return &profile, nil
}

func toProfileResponse(user *model.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}

// ==================== MIDDLEWARE ====================

// RequiredAuth accepts a bearer token whose session is still active and
// stores the user, role and session on the request.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.authenticate(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous or stale requests through without user locals.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if err := svc.authenticate(c); err != nil {
			log.WithError(err).Debug("Ignoring invalid credentials on public route")
		}
		return c.Next()
	}
}

func (svc *AuthService) authenticate(c *fiber.Ctx) error {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return shared.NewUnauthorizedError(err, "Unauthorized")
	}

	claims, err := svc.jwtSvc.VerifyJWTToken(token)
	if err != nil {
		return shared.NewUnauthorizedError(err, "Invalid or expired token")
	}

	session, err := svc.sessions.GetSession(claims.SessionID())
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.NewUnauthorizedError(err, "Session not found")
		}
		return err
	}
	if session.UserID != claims.UserID || !session.Active(svc.clock.Now()) {
		return shared.NewUnauthorizedError(nil, "Session has ended")
	}

	c.Locals(shared.UserID, claims.UserID)
	c.Locals(shared.UserRole, claims.Role)
	c.Locals(shared.SessionID, session.ID)
	return nil
}

func (svc *AuthService) RequireAdmin() fiber.Handler {
	return middleware.RequireRole(shared.RoleAdmin)
}
