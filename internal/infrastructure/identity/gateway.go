// Package identity verifies ownership of a phone number or email address
// through one-time codes issued by an external provider.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

// Verification is the outcome of a successfully answered challenge.
type Verification struct {
	Verified bool
	Contact  string
}

type Gateway interface {
	// IssueChallenge sends a code to contact and returns the session token
	// the client must present together with that code.
	IssueChallenge(ctx context.Context, contact string) (sessionToken string, err error)
	VerifyChallenge(ctx context.Context, sessionToken, code string) (*Verification, error)
}

type ContactKind int

const (
	ContactInvalid ContactKind = iota
	ContactPhone
	ContactEmail
)

var validate = validator.New()

// Classify normalizes contact and reports whether it is a phone number or an email.
func Classify(contact string) (string, ContactKind) {
	contact = strings.TrimSpace(contact)
	if strings.Contains(contact, "@") {
		contact = strings.ToLower(contact)
		if validate.Var(contact, "required,email,max=255") != nil {
			return contact, ContactInvalid
		}
		return contact, ContactEmail
	}
	if validate.Var(contact, "required,e164") != nil {
		return contact, ContactInvalid
	}
	return contact, ContactPhone
}

// Router dispatches phone contacts to the phone gateway and email contacts
// to the email gateway, bounding every call by timeout.
type Router struct {
	phone   Gateway
	email   *EmailGateway
	timeout time.Duration
}

func NewRouter(phone Gateway, email *EmailGateway, timeout time.Duration) *Router {
	return &Router{phone: phone, email: email, timeout: timeout}
}

func (r *Router) IssueChallenge(ctx context.Context, contact string) (string, error) {
	contact, kind := Classify(contact)
	gw, err := r.gatewayFor(kind)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return gw.IssueChallenge(ctx, contact)
}

func (r *Router) VerifyChallenge(ctx context.Context, sessionToken, code string) (*Verification, error) {
	if sessionToken == "" || strings.TrimSpace(code) == "" {
		return nil, svcErr.Validation("sessionInfo and code are required")
	}
	kind := ContactPhone
	if IsEmailSession(sessionToken) {
		kind = ContactEmail
	}
	gw, err := r.gatewayFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return gw.VerifyChallenge(ctx, sessionToken, strings.TrimSpace(code))
}

func (r *Router) gatewayFor(kind ContactKind) (Gateway, error) {
	switch kind {
	case ContactPhone:
		if r.phone == nil {
			return nil, svcErr.Upstream("phone verification is not configured", nil)
		}
		return r.phone, nil
	case ContactEmail:
		if r.email == nil {
			return nil, svcErr.Upstream("email verification is not configured", nil)
		}
		return r.email, nil
	default:
		return nil, domain.ErrInvalidContact
	}
}
