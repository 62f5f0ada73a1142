package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
	"github.com/grapeapp/grape-backend/internal/infrastructure/identity"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository"
)

type AuthUseCase struct {
	users    repository.UserRepository
	verifier identity.Gateway
	tokens   *TokenService
	metrics  *telemetry.Metrics
	now      func() time.Time
}

func NewAuthUseCase(
	users repository.UserRepository,
	verifier identity.Gateway,
	tokens *TokenService,
	metrics *telemetry.Metrics,
) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SendOTPResponse is returned after a challenge was issued
type SendOTPResponse struct {
	SessionInfo string `json:"sessionInfo"`
	UserExists  bool   `json:"userExists"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

// CompleteProfileRequest carries the onboarding form. The required fields
// replace the placeholders written at sign up.
type CompleteProfileRequest struct {
	domain.ProfilePatch
}

// VerifyEmailRequest attaches a verified email to the caller's account
type VerifyEmailRequest struct {
	Email       string `json:"email" binding:"required"`
	SessionInfo string `json:"sessionInfo" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// SendOTP issues a one-time code to a phone number or email address.
func (uc *AuthUseCase) SendOTP(ctx context.Context, contact string) (*SendOTPResponse, error) {
	normalized, kind := identity.Classify(contact)
	if kind == identity.ContactInvalid {
		return nil, domain.ErrInvalidContact
	}

	existing, err := uc.findByContact(ctx, normalized, kind)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	session, err := uc.verifier.IssueChallenge(ctx, normalized)
	uc.metrics.OTP("send", err)
	if err != nil {
		return nil, err
	}

	return &SendOTPResponse{SessionInfo: session, UserExists: existing != nil}, nil
}

// VerifyOTP answers a challenge and signs the contact in, creating a minimal
// account the first time the contact is seen.
func (uc *AuthUseCase) VerifyOTP(ctx context.Context, sessionInfo, code string) (*AuthResponse, error) {
	v, err := uc.verifier.VerifyChallenge(ctx, sessionInfo, code)
	uc.metrics.OTP("verify", err)
	if err != nil {
		return nil, err
	}

	contact, kind := identity.Classify(v.Contact)
	if kind == identity.ContactInvalid {
		return nil, svcErr.Upstream("identity provider returned an unusable contact", nil)
	}

	user, err := uc.findByContact(ctx, contact, kind)
	isNew := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		user, isNew, err = uc.createMinimal(ctx, contact, kind)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return uc.respond(user, isNew)
}

// createMinimal inserts the placeholder account. A concurrent verification of
// the same contact loses the unique race and reads the winner's row.
func (uc *AuthUseCase) createMinimal(ctx context.Context, contact string, kind identity.ContactKind) (*domain.User, bool, error) {
	var user *domain.User
	if kind == identity.ContactEmail {
		user = domain.NewMinimalUser(nil, &contact, true)
	} else {
		user = domain.NewMinimalUser(&contact, nil, false)
	}

	err := uc.users.Create(ctx, user)
	if err == nil {
		logger.Info("user registered", "user_id", user.ID)
		return user, true, nil
	}
	if errors.Is(err, domain.ErrPhoneTaken) || errors.Is(err, domain.ErrEmailTaken) {
		existing, getErr := uc.findByContact(ctx, contact, kind)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load concurrently created user: %w", getErr)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("failed to create user: %w", err)
}

// CompleteProfile replaces the onboarding fields and marks the profile complete.
func (uc *AuthUseCase) CompleteProfile(ctx context.Context, userID uuid.UUID, req *CompleteProfileRequest) (*AuthResponse, error) {
	p := &req.ProfilePatch
	switch {
	case p.FirstName == nil:
		return nil, svcErr.Validation("first_name is required")
	case p.DOB == nil:
		return nil, svcErr.Validation("dob is required")
	case p.Gender == nil:
		return nil, svcErr.Validation("gender is required")
	case p.Sex == nil:
		return nil, svcErr.Validation("sex is required")
	case p.InterestedIn == nil:
		return nil, svcErr.Validation("interested_in is required")
	}
	if err := p.Validate(uc.now()); err != nil {
		return nil, err
	}

	user, err := uc.users.ApplyPatch(ctx, userID, p, true)
	if err != nil {
		return nil, err
	}
	return uc.respond(user, false)
}

// SendEmailOTP sends a code to an email address the caller wants to attach.
func (uc *AuthUseCase) SendEmailOTP(ctx context.Context, userID uuid.UUID, email string) (*SendOTPResponse, error) {
	normalized, kind := identity.Classify(email)
	if kind != identity.ContactEmail {
		return nil, svcErr.Validation("a valid email is required")
	}
	if err := uc.checkEmailAvailable(ctx, userID, normalized); err != nil {
		return nil, err
	}

	session, err := uc.verifier.IssueChallenge(ctx, normalized)
	uc.metrics.OTP("send_email", err)
	if err != nil {
		return nil, err
	}
	return &SendOTPResponse{SessionInfo: session, UserExists: true}, nil
}

// VerifyEmailOTP checks the code and stores the email as verified.
func (uc *AuthUseCase) VerifyEmailOTP(ctx context.Context, userID uuid.UUID, req *VerifyEmailRequest) (*AuthResponse, error) {
	normalized, kind := identity.Classify(req.Email)
	if kind != identity.ContactEmail {
		return nil, svcErr.Validation("a valid email is required")
	}
	if !identity.IsEmailSession(req.SessionInfo) {
		return nil, domain.ErrVerificationFailed
	}

	v, err := uc.verifier.VerifyChallenge(ctx, req.SessionInfo, req.Code)
	uc.metrics.OTP("verify_email", err)
	if err != nil {
		return nil, err
	}
	if v.Contact != normalized {
		return nil, domain.ErrVerificationFailed
	}

	if err := uc.checkEmailAvailable(ctx, userID, normalized); err != nil {
		return nil, err
	}
	if err := uc.users.SetEmail(ctx, userID, normalized, true); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.respond(user, false)
}

func (uc *AuthUseCase) checkEmailAvailable(ctx context.Context, userID uuid.UUID, email string) error {
	owner, err := uc.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up email: %w", err)
	case owner.ID != userID:
		return domain.ErrEmailTaken
	}
	return nil
}

func (uc *AuthUseCase) findByContact(ctx context.Context, contact string, kind identity.ContactKind) (*domain.User, error) {
	if kind == identity.ContactEmail {
		return uc.users.GetByEmail(ctx, contact)
	}
	return uc.users.GetByPhone(ctx, contact)
}

func (uc *AuthUseCase) respond(user *domain.User, isNew bool) (*AuthResponse, error) {
	token, expiresAt, err := uc.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user, IsNewUser: isNew}, nil
}
