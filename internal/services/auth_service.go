package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"stockmaster/internal/models"
	"stockmaster/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the expected negative outcome of a bad login.
// It is surfaced as a specific inline message and never locks the account.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailNotRegistered is returned when password recovery is requested for
// an email with no profile on file.
var ErrEmailNotRegistered = errors.New("email is not registered")

// ErrInvalidResetToken covers expired, malformed and wrong-purpose tokens
// presented to the reset endpoint.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetTokenTTL = 30 * time.Minute

// TokenClaims are the JWT claims carried by every session token.
type TokenClaims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// resetClaims are the claims of a short-lived password-reset token. The
// purpose claim keeps a session token from being replayed against the
// reset endpoint.
type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

const resetPurpose = "password_reset"

// AuthService handles registration, staff onboarding and login.
type AuthService interface {
	RegisterShop(ctx context.Context, shopName, currency, ownerName, email, password string) (*models.User, string, error)
	JoinStaff(ctx context.Context, companyID, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, user *models.User)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	IssueToken(user *models.User) (string, error)
}

type authService struct {
	userRepo     repositories.UserRepository
	companyRepo  repositories.CompanyRepository
	supportRepo  repositories.SupportRepository
	activityRepo repositories.ActivityLogsRepository
	mailer       Mailer
	jwtSecret    []byte
	appBaseURL   string
	tokenTTL     time.Duration
}

func NewAuthService(
	userRepo repositories.UserRepository,
	companyRepo repositories.CompanyRepository,
	supportRepo repositories.SupportRepository,
	activityRepo repositories.ActivityLogsRepository,
	mailer Mailer,
	jwtSecret string,
	appBaseURL string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		companyRepo:  companyRepo,
		supportRepo:  supportRepo,
		activityRepo: activityRepo,
		mailer:       mailer,
		jwtSecret:    []byte(jwtSecret),
		appBaseURL:   appBaseURL,
		tokenTTL:     tokenTTL,
	}
}

// RegisterShop creates the company with a fresh short code and its manager
// profile, active immediately, and logs the manager in.
func (s *authService) RegisterShop(ctx context.Context, shopName, currency, ownerName, email, password string) (*models.User, string, error) {
	if !models.ValidCurrency(currency) {
		return nil, "", fmt.Errorf("unsupported currency %q", currency)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	company := &models.Company{
		ID:       newShopCode(),
		Name:     strings.TrimSpace(shopName),
		Currency: currency,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, "", fmt.Errorf("failed to register shop: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		Name:         strings.TrimSpace(ownerName),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         models.RoleManager,
		Status:       models.StatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create manager profile: %w", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// JoinStaff creates a pending worker profile against an existing shop code.
// The worker cannot act until a manager approves them.
func (s *authService) JoinStaff(ctx context.Context, companyID, name, email, password string) (*models.User, error) {
	if _, err := s.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, fmt.Errorf("shop code %s not found", companyID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         models.RoleWorker,
		Status:       models.StatusPending,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create staff profile: %w", err)
	}
	return user, nil
}

// Login authenticates by email and password. Pending and rejected profiles
// still authenticate; the gate on what they can do lives in the status
// checks downstream, so they can watch their own approval state.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	// Login audit entry; best effort.
	if err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    "User Login",
		Details:   "Authenticated via API",
		Type:      models.LogSuccess,
	}); err != nil {
		log.Printf("WARN: login audit write failed for %s: %v", user.ID, err)
	}

	return user, token, nil
}

// Logout records the audit entry. Tokens stay valid until expiry; the
// session snapshot and feed subscription are torn down by the caller.
func (s *authService) Logout(ctx context.Context, user *models.User) {
	if err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    "User Logout",
		Details:   "Session ended",
		Type:      models.LogInfo,
	}); err != nil {
		log.Printf("WARN: logout audit write failed for %s: %v", user.ID, err)
	}
}

// ChangePassword rehashes after verifying the current password. The same
// opaque error covers a wrong current password and an unknown user.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// RequestPasswordReset emails a time-limited recovery link. It also opens a
// support ticket so the admin console surfaces the event, and writes the
// audit entry. The mail send is the critical step; the ticket and log are
// best effort.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrEmailNotRegistered
	}

	token, err := s.issueResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, token)

	if err := s.mailer.SendPasswordReset(user.Email, user.Name, link); err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	if err := s.supportRepo.Create(ctx, &models.SupportTicket{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		Subject:   "SYSTEM PASSWORD RESET TRIGGERED",
		Message:   fmt.Sprintf("User %s initiated an automated password reset. Recovery email dispatched.", user.Name),
		Status:    models.TicketOpen,
	}); err != nil {
		log.Printf("WARN: reset ticket write failed for %s: %v", user.ID, err)
	}
	if err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    "RECOVERY DISPATCHED",
		Details:   "Automated recovery email successfully triggered",
		Type:      models.LogInfo,
	}); err != nil {
		log.Printf("WARN: recovery audit write failed for %s: %v", user.ID, err)
	}

	return nil
}

// ResetPassword validates the recovery token and rehashes. The same error
// covers expiry, tampering and purpose mismatch.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims := new(resetClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid || claims.Purpose != resetPurpose {
		return ErrInvalidResetToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	if err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    "Password Recovered",
		Details:   "User reset password via recovery link",
		Type:      models.LogSuccess,
	}); err != nil {
		log.Printf("WARN: recovery audit write failed for %s: %v", user.ID, err)
	}
	return nil
}

func (s *authService) issueResetToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "stockmaster-auth",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *authService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		CompanyID: user.CompanyID,
		Role:      string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "stockmaster-auth",
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %v", err)
	}
	return signed, nil
}

// newShopCode generates the human-shareable tenant short code.
func newShopCode() string {
	return "SM-" + random.String(6, random.Uppercase, random.Numeric)
}
