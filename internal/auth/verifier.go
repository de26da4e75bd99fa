package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"safetap/internal/models"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrUnverified        = errors.New("email not verified")
)

// Срок жизни кода подтверждения телефона.
const phoneCodeTTL = 10 * time.Minute

// Store — контракт хранилища для проверки учётных данных.
type Store interface {
	AccountByID(ctx context.Context, id uint) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByPhone(ctx context.Context, phone string) (*models.Account, error)
	ProfileByAccount(ctx context.Context, accountID uint) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) error
	SaveAccountAndProfile(ctx context.Context, a *models.Account, p *models.Profile) error
}

// Session — результат успешной проверки: сессионный токен и субъект.
type Session struct {
	Token   string
	Account *models.Account
	Profile *models.Profile
}

// Verifier проверяет PIN и одноразовые коды. Пути независимы,
// вызывающий выбирает один.
type Verifier struct {
	store  Store
	tokens *TokenIssuer
	now    func() time.Time
}

func NewVerifier(store Store, tokens *TokenIssuer) *Verifier {
	return &Verifier{store: store, tokens: tokens, now: time.Now}
}

// CheckPIN сверяет PIN по email. Требует подтверждённый email,
// если не передан явный обход (только для доверенных вызовов).
func (v *Verifier) CheckPIN(ctx context.Context, email, pin string, bypassEmailVerification bool) (*Session, error) {
	acc, err := v.store.AccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	prof, err := v.store.ProfileByAccount(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if acc.PIN == "" || acc.PIN != pin {
		return nil, ErrInvalidCredential
	}
	if !bypassEmailVerification && !acc.EmailVerified {
		return nil, ErrUnverified
	}
	return v.session(acc, prof)
}

// IssuePhoneCode генерирует шестизначный код для зарегистрированного
// телефона и сохраняет его с истечением. Доставка — забота вызывающего.
func (v *Verifier) IssuePhoneCode(ctx context.Context, phone string) (string, error) {
	acc, err := v.store.AccountByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	prof, err := v.store.ProfileByAccount(ctx, acc.ID)
	if err != nil {
		return "", err
	}
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	expires := v.now().Add(phoneCodeTTL)
	prof.PhoneCode = code
	prof.PhoneCodeExpiresAt = &expires
	if err := v.store.SaveProfile(ctx, prof); err != nil {
		return "", err
	}
	return code, nil
}

// CheckPhoneCode сверяет код, одноразово: код стирается при успехе
// и при обнаружении истечения. Несовпадение и истечение различимы.
func (v *Verifier) CheckPhoneCode(ctx context.Context, phone, code string) (*Session, error) {
	acc, err := v.store.AccountByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	prof, err := v.store.ProfileByAccount(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if prof.PhoneCode == "" || prof.PhoneCode != code {
		return nil, ErrInvalidCredential
	}
	if prof.PhoneCodeExpiresAt != nil && prof.PhoneCodeExpiresAt.Before(v.now()) {
		prof.PhoneCode = ""
		prof.PhoneCodeExpiresAt = nil
		_ = v.store.SaveProfile(ctx, prof)
		return nil, ErrCodeExpired
	}

	// Стирание кода и флаг верификации — одна транзакция: при сбое
	// код не должен остаться живым рядом с выставленным флагом.
	prof.PhoneCode = ""
	prof.PhoneCodeExpiresAt = nil
	acc.PhoneVerified = true
	if err := v.store.SaveAccountAndProfile(ctx, acc, prof); err != nil {
		return nil, err
	}
	return v.session(acc, prof)
}

// CheckEmailToken подтверждает email по токену из письма.
func (v *Verifier) CheckEmailToken(ctx context.Context, email, token string) (*Session, error) {
	acc, err := v.store.AccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	prof, err := v.store.ProfileByAccount(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if prof.EmailToken == "" || prof.EmailToken != token {
		return nil, ErrInvalidCredential
	}
	prof.EmailToken = ""
	acc.EmailVerified = true
	if err := v.store.SaveAccountAndProfile(ctx, acc, prof); err != nil {
		return nil, err
	}
	return v.session(acc, prof)
}

func (v *Verifier) session(acc *models.Account, prof *models.Profile) (*Session, error) {
	token, err := v.tokens.Issue(acc.ID, prof.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: acc, Profile: prof}, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
