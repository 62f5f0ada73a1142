package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
	"github.com/grapeapp/grape-backend/internal/infrastructure/mailer"
)

const emailSessionPrefix = "em_"

// IsEmailSession reports whether a session token was issued by EmailGateway.
func IsEmailSession(token string) bool {
	return strings.HasPrefix(token, emailSessionPrefix)
}

// EmailGateway issues six digit codes by email and verifies them against a CodeStore.
type EmailGateway struct {
	store       CodeStore
	sender      mailer.Sender
	ttl         time.Duration
	maxAttempts int
	// generateCode is replaced in tests.
	generateCode func() (string, error)
}

func NewEmailGateway(store CodeStore, sender mailer.Sender, ttl time.Duration, maxAttempts int) *EmailGateway {
	return &EmailGateway{
		store:        store,
		sender:       sender,
		ttl:          ttl,
		maxAttempts:  maxAttempts,
		generateCode: randomCode,
	}
}

func (g *EmailGateway) IssueChallenge(ctx context.Context, email string) (string, error) {
	code, err := g.generateCode()
	if err != nil {
		return "", svcErr.Internal("failed to generate code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", svcErr.Internal("failed to hash code", err)
	}
	token, err := randomToken()
	if err != nil {
		return "", svcErr.Internal("failed to generate session", err)
	}

	if err := g.store.Save(ctx, token, Challenge{Contact: email, CodeHash: hash}, g.ttl); err != nil {
		return "", svcErr.Internal("failed to store challenge", err)
	}

	body := fmt.Sprintf(
		"Your Grape verification code is %s.\n\nIt expires in %d minutes. If you did not request it, ignore this email.",
		code, int(g.ttl.Minutes()),
	)
	if err := g.sender.Send(ctx, email, "Your Grape verification code", body); err != nil {
		_ = g.store.Delete(ctx, token)
		return "", svcErr.Upstream("failed to send verification email", err)
	}
	return token, nil
}

func (g *EmailGateway) VerifyChallenge(ctx context.Context, token, code string) (*Verification, error) {
	ch, err := g.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return nil, domain.ErrVerificationFailed
		}
		return nil, svcErr.Internal("failed to load challenge", err)
	}

	attempts, err := g.store.IncrementAttempts(ctx, token)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return nil, domain.ErrVerificationFailed
		}
		return nil, svcErr.Internal("failed to record attempt", err)
	}
	if attempts > g.maxAttempts {
		_ = g.store.Delete(ctx, token)
		return nil, domain.ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(ch.CodeHash, []byte(code)) != nil {
		return nil, domain.ErrVerificationFailed
	}

	_ = g.store.Delete(ctx, token)
	return &Verification{Verified: true, Contact: ch.Contact}, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return emailSessionPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
