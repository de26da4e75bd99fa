package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"safetap/internal/logs"
	"safetap/internal/models"
	"safetap/internal/repo"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrPINRequired   = errors.New("pin is required")
	ErrBadPIN        = errors.New("pin must be 4-6 digits")
)

// RegistrarStore — контракт хранилища для самостоятельной регистрации.
type RegistrarStore interface {
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByPhone(ctx context.Context, phone string) (*models.Account, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreateAccount(ctx context.Context, acc *models.Account, prof *models.Profile) error
	ProfileByAccount(ctx context.Context, accountID uint) (*models.Profile, error)
	SaveAccountAndProfile(ctx context.Context, a *models.Account, p *models.Profile) error
}

// RegisterInput — провалидированный вход регистрации.
type RegisterInput struct {
	Email    string
	Username string // необязательно, по умолчанию из email
	Password string // необязательно, по умолчанию случайный
	PIN      string
	FullName string
	Phone    string

	Division string
	District string
	Thana    string
	Address  string

	Role          string // по умолчанию customer
	PhoneVerified bool
}

// RegisterResult — созданный аккаунт и токен подтверждения email,
// который вызывающий отправляет письмом.
type RegisterResult struct {
	Account    *models.Account
	Profile    *models.Profile
	EmailToken string
}

type Registrar struct {
	store     RegistrarStore
	artifacts ArtifactEnsurer // может быть nil
}

func NewRegistrar(store RegistrarStore, artifacts ArtifactEnsurer) *Registrar {
	return &Registrar{store: store, artifacts: artifacts}
}

// Register создаёт аккаунт по email+PIN. Дубликаты email/телефона —
// конфликт; имя пользователя разрешается числовым суффиксом.
func (r *Registrar) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, ErrEmailRequired
	}
	if in.PIN == "" {
		return nil, ErrPINRequired
	}
	if !validPIN(in.PIN) {
		return nil, ErrBadPIN
	}
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	if _, err := r.store.AccountByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", repo.ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if in.Phone != "" {
		if _, err := r.store.AccountByPhone(ctx, in.Phone); err == nil {
			return nil, fmt.Errorf("%w: phone already registered", repo.ErrConflict)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	base := in.Username
	if base == "" {
		base = usernameBase(in.Email, in.FullName, uuid.NewString())
	}
	username, err := freeUsernameFor(ctx, r.store, base)
	if err != nil {
		return nil, err
	}

	password := in.Password
	if password == "" {
		password = uuid.NewString()[:12]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	first, last := splitDisplayName(strings.TrimSpace(in.FullName))
	acc := &models.Account{
		Username:      username,
		PasswordHash:  hash,
		PIN:           in.PIN,
		FirstName:     first,
		LastName:      last,
		PhoneVerified: in.PhoneVerified,
	}
	email := in.Email
	acc.Email = &email
	if in.Phone != "" {
		phone := in.Phone
		acc.Phone = &phone
	}

	token := uuid.NewString()
	prof := &models.Profile{
		Role:            role,
		ServiceDivision: in.Division,
		ServiceDistrict: in.District,
		ServiceThana:    in.Thana,
		Address:         in.Address,
		EmailToken:      token,
	}

	if err := r.store.CreateAccount(ctx, acc, prof); err != nil {
		return nil, err
	}

	if r.artifacts != nil {
		if aerr := r.artifacts.Ensure(ctx, acc.ID); aerr != nil {
			logs.Logger.Warnf("identity: support artifacts for account %d: %v", acc.ID, aerr)
		}
	}
	return &RegisterResult{Account: acc, Profile: prof, EmailToken: token}, nil
}

// IssueEmailToken генерирует новый токен подтверждения и сбрасывает
// флаг верификации (повторная отправка письма).
func (r *Registrar) IssueEmailToken(ctx context.Context, email string) (string, error) {
	acc, err := r.store.AccountByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	prof, err := r.store.ProfileByAccount(ctx, acc.ID)
	if err != nil {
		return "", err
	}
	// Новый токен и сброшенный флаг пишутся одной транзакцией.
	token := uuid.NewString()
	prof.EmailToken = token
	acc.EmailVerified = false
	if err := r.store.SaveAccountAndProfile(ctx, acc, prof); err != nil {
		return "", err
	}
	return token, nil
}

func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type usernameChecker interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// freeUsernameFor подбирает свободное имя: base, base1, base2, ...
func freeUsernameFor(ctx context.Context, store usernameChecker, base string) (string, error) {
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := store.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(counter)
	}
}
