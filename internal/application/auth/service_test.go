package auth

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/infrastructure/memory"
	"github.com/classsync/internal/infrastructure/smtp"
	"github.com/classsync/internal/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Put(ctx context.Context, p *domain.PendingCode) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockCodeStore) Get(ctx context.Context, identity string) (*domain.PendingCode, error) {
	args := m.Called(ctx, identity)
	if p, _ := args.Get(0).(*domain.PendingCode); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) Take(ctx context.Context, identity string) (*domain.PendingCode, error) {
	args := m.Called(ctx, identity)
	if p, _ := args.Get(0).(*domain.PendingCode); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) TakeMatching(ctx context.Context, identity, code string) (*domain.PendingCode, error) {
	args := m.Called(ctx, identity, code)
	if p, _ := args.Get(0).(*domain.PendingCode); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg smtp.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// --- builder ---

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(codes CodeStore, ml smtp.Mailer, codec *token.Codec) Service {
	return NewService(ServiceDeps{
		Codes:         codes,
		Mailer:        ml,
		Tokens:        codec,
		AllowedDomain: "tschool.tp.edu.tw",
		CodeTTL:       5 * time.Minute,
		Now:           func() time.Time { return fixedNow },
	})
}

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

// --- IssueCode ---

func TestIssueCode_ForbiddenDomain(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}

	svc := newService(cs, ml, token.NewCodec("k"))
	err := svc.IssueCode(context.Background(), "12345@gmail.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbiddenDomain))
	cs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestIssueCode_InvalidIdentity(t *testing.T) {
	svc := newService(&mockCodeStore{}, &mockMailer{}, token.NewCodec("k"))
	for _, in := range []string{"", "@tschool.tp.edu.tw", "a.b@tschool.tp.edu.tw", "a b"} {
		err := svc.IssueCode(context.Background(), in)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), "input %q", in)
	}
}

func TestIssueCode_HappyPath(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}

	var stored *domain.PendingCode
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.PendingCode")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.PendingCode) }).
		Return(nil)
	ml.On("Send", mock.Anything, mock.MatchedBy(func(msg smtp.Message) bool {
		return msg.To == "12345@tschool.tp.edu.tw"
	})).Return(nil)

	svc := newService(cs, ml, token.NewCodec("k"))
	require.NoError(t, svc.IssueCode(context.Background(), "  12345@TSCHOOL.tp.edu.tw "))

	require.NotNil(t, stored)
	assert.Equal(t, "12345", stored.Identity)
	assert.Regexp(t, sixDigits, stored.Code)
	assert.Equal(t, fixedNow.Add(5*time.Minute), stored.ExpiresAt)

	msg := ml.Calls[0].Arguments.Get(1).(smtp.Message)
	assert.Contains(t, msg.Subject, stored.Code)
	assert.Contains(t, msg.TextBody, stored.Code)
	assert.Contains(t, msg.HTMLBody, stored.Code)
	cs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestIssueCode_BareIdentityGetsDomain(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("Send", mock.Anything, mock.MatchedBy(func(msg smtp.Message) bool {
		return msg.To == "12345@tschool.tp.edu.tw"
	})).Return(nil)

	svc := newService(cs, ml, token.NewCodec("k"))
	require.NoError(t, svc.IssueCode(context.Background(), "12345"))
	ml.AssertExpectations(t)
}

func TestIssueCode_DeliveryFailedKeepsCode(t *testing.T) {
	store := memory.NewCodeStore(0).WithClock(func() time.Time { return fixedNow })
	defer store.Close()
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	svc := newService(store, ml, token.NewCodec("k"))
	err := svc.IssueCode(context.Background(), "12345@tschool.tp.edu.tw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailed))

	p, err := store.Get(context.Background(), "12345")
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, p.Code)
}

func TestIssueCode_StoreFailure(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}
	cs.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo unavailable"))

	svc := newService(cs, ml, token.NewCodec("k"))
	err := svc.IssueCode(context.Background(), "12345")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDeliveryFailed))
	ml.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestIssueCode_OverwritesPreviousCode(t *testing.T) {
	store := memory.NewCodeStore(0).WithClock(func() time.Time { return fixedNow })
	defer store.Close()
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := newService(store, ml, token.NewCodec("k"))
	require.NoError(t, svc.IssueCode(context.Background(), "12345"))
	require.NoError(t, svc.IssueCode(context.Background(), "12345"))
	assert.Equal(t, 1, store.Len())

	latest, err := store.Get(context.Background(), "12345")
	require.NoError(t, err)
	secondMail := ml.Calls[1].Arguments.Get(1).(smtp.Message)
	assert.Contains(t, secondMail.TextBody, latest.Code)
}

// --- Verify ---

func TestVerify_Mismatch(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("TakeMatching", mock.Anything, "12345", "000000").Return(nil, domain.ErrNotFound)

	svc := newService(cs, nil, token.NewCodec("k"))
	_, err := svc.Verify(context.Background(), "12345", "000000")
	assert.Equal(t, domain.ErrCodeMismatch, err)
}

func TestVerify_StoreError(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("TakeMatching", mock.Anything, "12345", "482913").Return(nil, errors.New("timeout"))

	svc := newService(cs, nil, token.NewCodec("k"))
	_, err := svc.Verify(context.Background(), "12345", "482913")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrCodeMismatch))
}

func TestVerify_MissingSecretIsHardFailure(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("TakeMatching", mock.Anything, "12345", "482913").
		Return(&domain.PendingCode{Identity: "12345", Code: "482913"}, nil)

	svc := newService(cs, nil, token.NewCodec(""))
	_, err := svc.Verify(context.Background(), "12345", "482913")
	assert.ErrorIs(t, err, token.ErrMissingSecret)
}

func TestVerify_SingleUse(t *testing.T) {
	clock := fixedNow
	store := memory.NewCodeStore(0).WithClock(func() time.Time { return clock })
	defer store.Close()
	codec := token.NewCodec("k")
	svc := newService(store, nil, codec)

	require.NoError(t, store.Put(context.Background(), &domain.PendingCode{
		Identity: "12345", Code: "482913", ExpiresAt: fixedNow.Add(5 * time.Minute),
	}))

	_, err := svc.Verify(context.Background(), "12345", "111111")
	assert.Equal(t, domain.ErrCodeMismatch, err)

	raw, err := svc.Verify(context.Background(), "12345", "482913")
	require.NoError(t, err)
	id, err := codec.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	_, err = svc.Verify(context.Background(), "12345", "482913")
	assert.Equal(t, domain.ErrCodeMismatch, err)
}

func TestVerify_AfterTTL(t *testing.T) {
	clock := fixedNow
	store := memory.NewCodeStore(0).WithClock(func() time.Time { return clock })
	defer store.Close()
	svc := newService(store, nil, token.NewCodec("k"))

	require.NoError(t, store.Put(context.Background(), &domain.PendingCode{
		Identity: "12345", Code: "482913", ExpiresAt: fixedNow.Add(5 * time.Minute),
	}))
	clock = fixedNow.Add(5 * time.Minute)

	_, err := svc.Verify(context.Background(), "12345", "482913")
	assert.Equal(t, domain.ErrCodeMismatch, err)
}

func TestIssueThenVerify_EndToEnd(t *testing.T) {
	store := memory.NewCodeStore(0).WithClock(func() time.Time { return fixedNow })
	defer store.Close()
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything).Return(nil)
	codec := token.NewCodec("k")
	svc := newService(store, ml, codec)

	require.NoError(t, svc.IssueCode(context.Background(), "12345@tschool.tp.edu.tw"))
	p, err := store.Get(context.Background(), "12345")
	require.NoError(t, err)
	n, err := strconv.Atoi(p.Code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, codeMin)
	assert.LessOrEqual(t, n, codeMax)

	raw, err := svc.Verify(context.Background(), "12345", p.Code)
	require.NoError(t, err)
	decoded, err := token.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "12345", decoded.Identity)
	assert.True(t, codec.Validate(decoded.Identity, decoded.Signature))
}

func TestEmail(t *testing.T) {
	svc := newService(nil, nil, token.NewCodec("k"))
	assert.Equal(t, "12345@tschool.tp.edu.tw", svc.Email("12345"))
}

func TestNewCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, err := newCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, c)
	}
}
