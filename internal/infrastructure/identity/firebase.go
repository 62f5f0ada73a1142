package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

// Provider error codes that mean the user answered wrong rather than the
// provider failing.
var firebaseUserErrors = []string{
	"INVALID_CODE",
	"INVALID_SESSION_INFO",
	"SESSION_EXPIRED",
	"CODE_EXPIRED",
	"MISSING_CODE",
	"TOO_MANY_ATTEMPTS_TRY_LATER",
}

// FirebaseGateway verifies phone numbers through the Identity Toolkit API.
type FirebaseGateway struct {
	svc *identitytoolkit.Service
}

func NewFirebaseGateway(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseGateway, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return &FirebaseGateway{svc: svc}, nil
}

func (g *FirebaseGateway) IssueChallenge(ctx context.Context, phone string) (string, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartySendVerificationCodeRequest{
		PhoneNumber: phone,
	}
	resp, err := g.svc.Relyingparty.SendVerificationCode(req).Context(ctx).Do()
	if err != nil {
		return "", mapFirebaseError("failed to send verification code", err)
	}
	return resp.SessionInfo, nil
}

func (g *FirebaseGateway) VerifyChallenge(ctx context.Context, sessionToken, code string) (*Verification, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPhoneNumberRequest{
		SessionInfo: sessionToken,
		Code:        code,
	}
	resp, err := g.svc.Relyingparty.VerifyPhoneNumber(req).Context(ctx).Do()
	if err != nil {
		return nil, mapFirebaseError("failed to verify code", err)
	}
	if resp.PhoneNumber == "" {
		return nil, domain.ErrVerificationFailed
	}
	return &Verification{Verified: true, Contact: resp.PhoneNumber}, nil
}

func mapFirebaseError(msg string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		if strings.Contains(apiErr.Message, "INVALID_PHONE_NUMBER") {
			return domain.ErrInvalidContact
		}
		for _, code := range firebaseUserErrors {
			if strings.Contains(apiErr.Message, code) {
				return domain.ErrVerificationFailed
			}
		}
	}
	return svcErr.Upstream(msg, err)
}
