package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/repository"
	"github.com/phamquangminh/mealio/pkg/auth"
	"github.com/phamquangminh/mealio/pkg/mailer"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpLength        = 6
	otpExpiryMinutes = 5
	otpRateLimit     = 3 // max OTPs per hour
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo   *repository.UserRepository
	otpRepo    *repository.OTPRepository
	jwtManager *auth.JWTManager
	mailer     *mailer.Mailer
	rdb        *redis.Client
}

func NewAuthService(
	userRepo *repository.UserRepository,
	otpRepo *repository.OTPRepository,
	jwtManager *auth.JWTManager,
	mailer *mailer.Mailer,
	rdb *redis.Client,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		otpRepo:    otpRepo,
		jwtManager: jwtManager,
		mailer:     mailer,
		rdb:        rdb,
	}
}

// ==================== Register (Email + OTP) ====================

// Register creates a new unverified user account and sends OTP
func (s *AuthService) Register(req model.RegisterRequest) (*model.OTPSentResponse, error) {
	// Check if email already exists
	existingUser, err := s.userRepo.FindByEmail(req.Email)
	if err == nil {
		// Email exists
		if existingUser.IsEmailVerified() {
			return nil, errors.New("email already registered")
		}
		// User registered but never verified - resend OTP
		return s.sendOTP(existingUser, model.OTPPurposeEmailVerification)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}

	// Send OTP email
	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// VerifyOTP verifies an OTP code and activates the account
func (s *AuthService) VerifyOTP(req model.VerifyOTPRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	// Find valid OTP
	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposeEmailVerification)
	if err != nil {
		return nil, errors.New("invalid or expired OTP code")
	}

	// Mark OTP as used
	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return nil, errors.New("failed to verify OTP")
	}

	// Verify user's email
	if err := s.userRepo.VerifyEmail(user.ID); err != nil {
		return nil, errors.New("failed to verify email")
	}

	// Generate JWT token
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	// Refresh user data
	user, _ = s.userRepo.FindByID(user.ID)

	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// ResendOTP generates and sends a new OTP code
func (s *AuthService) ResendOTP(req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.IsEmailVerified() {
		return nil, errors.New("email already verified")
	}

	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// ==================== Login (Email/Password) ====================

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, errors.New("failed to find user")
	}

	// Check if email is verified
	if !user.IsEmailVerified() {
		return nil, errors.New("email not verified. Please check your inbox for the verification code")
	}

	// Compare password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	// Generate JWT token
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// ==================== Forgot/Reset Password ====================

// ForgotPassword sends a password reset OTP
func (s *AuthService) ForgotPassword(req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		// Don't reveal if email exists or not
		return &model.OTPSentResponse{
			Message:   "If the email exists, a reset code has been sent",
			Email:     req.Email,
			ExpiresIn: otpExpiryMinutes * 60,
		}, nil
	}

	return s.sendOTP(user, model.OTPPurposePasswordReset)
}

// ResetPassword verifies OTP and sets a new password
func (s *AuthService) ResetPassword(req model.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return errors.New("user not found")
	}

	// Find valid OTP
	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposePasswordReset)
	if err != nil {
		return errors.New("invalid or expired reset code")
	}

	// Mark OTP as used
	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return errors.New("failed to process reset code")
	}

	// Hash new password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	return s.userRepo.UpdatePassword(user.ID, string(hashedPassword))
}

// ==================== Profile ====================

// GetProfile returns the current user's profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Logout blacklists the token until its natural expiry
func (s *AuthService) Logout(tokenString string) error {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	expiresIn := time.Until(claims.ExpiresAt.Time)
	if expiresIn <= 0 {
		return nil
	}

	return s.rdb.Set(context.Background(), "blacklist:"+tokenString, "revoked", expiresIn).Err()
}

// ==================== Internal Helpers ====================

// sendOTP generates a code, saves it, and emails it
func (s *AuthService) sendOTP(user *model.User, purpose model.OTPPurpose) (*model.OTPSentResponse, error) {
	// Rate limiting: max 3 OTPs per hour
	count, _ := s.otpRepo.CountRecentOTPs(user.ID, purpose, time.Now().Add(-1*time.Hour))
	if count >= int64(otpRateLimit) {
		return nil, errors.New("too many OTP requests. Please try again later")
	}

	// Invalidate old OTPs
	_ = s.otpRepo.InvalidateAllForUser(user.ID, purpose)

	// Generate 6-digit code
	code, err := generateOTPCode(otpLength)
	if err != nil {
		return nil, errors.New("failed to generate OTP code")
	}

	// Save OTP to database
	otp := &model.OTPCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Duration(otpExpiryMinutes) * time.Minute),
	}
	if err := s.otpRepo.Create(otp); err != nil {
		return nil, errors.New("failed to save OTP")
	}

	// Send email asynchronously
	go func() {
		var emailErr error
		switch purpose {
		case model.OTPPurposeEmailVerification:
			emailErr = s.mailer.SendOTP(user.Email, user.Name, code, otpExpiryMinutes)
		case model.OTPPurposePasswordReset:
			emailErr = s.mailer.SendPasswordReset(user.Email, user.Name, code, otpExpiryMinutes)
		}
		if emailErr != nil {
			fmt.Printf("❌ Failed to send email: %v\n", emailErr)
		}
	}()

	return &model.OTPSentResponse{
		Message:   "Verification code sent to your email",
		Email:     user.Email,
		ExpiresIn: otpExpiryMinutes * 60,
	}, nil
}

// generateOTPCode generates a cryptographically secure random numeric code
func generateOTPCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}
