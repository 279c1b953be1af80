package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"math/big"
	"strings"
	"text/template"
	"time"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/infrastructure/smtp"
	"github.com/classsync/internal/pkg/validate"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// CodeStore holds pending login codes keyed by identity.
// Implementations must make every operation atomic per identity and must treat
// expired entries as absent.
type CodeStore interface {
	Put(ctx context.Context, p *domain.PendingCode) error
	Get(ctx context.Context, identity string) (*domain.PendingCode, error)
	Take(ctx context.Context, identity string) (*domain.PendingCode, error)
	TakeMatching(ctx context.Context, identity, code string) (*domain.PendingCode, error)
}

// TokenMinter turns a verified identity into an encoded session token.
type TokenMinter interface {
	Mint(identity string) (string, error)
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type VerifyRequest struct {
	UserID string `json:"userId" validate:"required,identity"`
	Code   string `json:"code" validate:"required,otp"`
}

type Service interface {
	IssueCode(ctx context.Context, rawAddressOrID string) error
	Verify(ctx context.Context, identity, code string) (string, error)
	Email(identity string) string
}

type ServiceDeps struct {
	Codes         CodeStore
	Mailer        smtp.Mailer
	Tokens        TokenMinter
	AllowedDomain string
	CodeTTL       time.Duration
	SiteName      string
	// LogCodes writes issued codes to the log. Development only.
	LogCodes bool
	Now      func() time.Time
}

type service struct {
	codes         CodeStore
	mailer        smtp.Mailer
	tokens        TokenMinter
	allowedDomain string
	ttl           time.Duration
	siteName      string
	logCodes      bool
	now           func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		codes:         d.Codes,
		mailer:        d.Mailer,
		tokens:        d.Tokens,
		allowedDomain: strings.ToLower(d.AllowedDomain),
		ttl:           d.CodeTTL,
		siteName:      d.SiteName,
		logCodes:      d.LogCodes,
		now:           d.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 5 * time.Minute
	}
	if s.siteName == "" {
		s.siteName = "ClassSync"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IssueCode resolves the address, stores a fresh code and mails it.
// A mail failure leaves the stored code in place; it stays valid until its TTL.
func (s *service) IssueCode(ctx context.Context, rawAddressOrID string) error {
	address, identity, err := s.resolve(rawAddressOrID)
	if err != nil {
		return err
	}
	code, err := newCode()
	if err != nil {
		return err
	}
	p := &domain.PendingCode{Identity: identity, Code: code, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.codes.Put(ctx, p); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}
	if s.logCodes {
		slog.Info("login code (development)", "identity", identity, "code", code)
	}

	msg, err := s.message(address, code)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("login code delivery failed", "identity", identity, "err", err)
		return fmt.Errorf("send login code: %w", domain.ErrDeliveryFailed)
	}
	slog.Info("login code issued", "identity", identity)
	return nil
}

// Verify consumes the pending code for identity and mints a session token.
// Absent, expired and wrong codes are indistinguishable to the caller.
func (s *service) Verify(ctx context.Context, identity, code string) (string, error) {
	if _, err := s.codes.TakeMatching(ctx, identity, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrCodeMismatch
		}
		return "", fmt.Errorf("consume login code: %w", err)
	}
	tok, err := s.tokens.Mint(identity)
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	slog.Info("login verified", "identity", identity)
	return tok, nil
}

// Email returns the institutional address for identity.
func (s *service) Email(identity string) string {
	return identity + "@" + s.allowedDomain
}

// resolve normalises input to an address on the allowed domain and its identity.
// A bare identity gets the allowed domain appended.
func (s *service) resolve(raw string) (address, identity string, err error) {
	raw = strings.TrimSpace(raw)
	local, host, ok := strings.Cut(raw, "@")
	if !ok {
		host = s.allowedDomain
	}
	host = strings.ToLower(host)
	if host != s.allowedDomain {
		return "", "", fmt.Errorf("%q: %w", host, domain.ErrForbiddenDomain)
	}
	if !validate.Identity(local) {
		return "", "", fmt.Errorf("invalid identity: %w", domain.ErrBadRequest)
	}
	return local + "@" + host, local, nil
}

// newCode draws uniformly from [codeMin, codeMax].
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

type emailParams struct {
	SiteName string
	Email    string
	Code     string
	Minutes  int
}

var textTmpl = template.Must(template.New("text").Parse(`Hi {{.Email}},

Your {{.SiteName}} login code is:

{{.Code}}

The code is valid for {{.Minutes}} minutes and can be used once.
If you did not request it, you can ignore this email.
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="font-family:sans-serif;padding:20px;border:1px solid #eee;border-radius:10px;max-width:400px">
<h2 style="color:#2563eb">{{.SiteName}}</h2>
<p>Your login code:</p>
<div style="background:#f3f4f6;padding:15px;text-align:center;font-size:32px;font-weight:bold;letter-spacing:5px">{{.Code}}</div>
<p style="font-size:12px;color:#9ca3af">Valid for {{.Minutes}} minutes. Do not share it. If you did not request it, ignore this email.</p>
</div>`))

func (s *service) message(address, code string) (smtp.Message, error) {
	p := emailParams{SiteName: s.siteName, Email: address, Code: code, Minutes: int(s.ttl.Minutes())}
	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, p); err != nil {
		return smtp.Message{}, err
	}
	if err := htmlTmpl.Execute(&html, p); err != nil {
		return smtp.Message{}, err
	}
	return smtp.Message{
		To:       address,
		Subject:  fmt.Sprintf("%s login code: %s", s.siteName, code),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
