package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"safetap/internal/logs"
	"safetap/internal/models"
	"safetap/internal/repo"
)

// ErrProvisioning — авто-создание аккаунта не удалось и после
// повторной попытки; частичное состояние не остаётся (транзакция),
// но вызывающий не должен на это закладываться.
var ErrProvisioning = errors.New("account provisioning failed")

// Assertion — проверенное утверждение внешнего провайдера идентичности.
type Assertion struct {
	ExternalID  string
	Email       string
	DisplayName string
	Provider    string
	RawClaims   []byte // исходный payload, сохраняется на привязке
}

// Store — контракт хранилища, нужный резолверу.
type Store interface {
	AccountByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	LinkByAccount(ctx context.Context, accountID uint) (*models.IdentityLink, error)
	CreateLink(ctx context.Context, link *models.IdentityLink) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Provision(ctx context.Context, acc *models.Account, prof *models.Profile, link *models.IdentityLink) error
}

// ArtifactEnsurer генерирует артефакты поддержки для нового аккаунта.
// Ошибки генерации не прерывают резолюцию.
type ArtifactEnsurer interface {
	Ensure(ctx context.Context, accountID uint) error
}

type Resolver struct {
	store     Store
	artifacts ArtifactEnsurer // может быть nil
}

func NewResolver(store Store, artifacts ArtifactEnsurer) *Resolver {
	return &Resolver{store: store, artifacts: artifacts}
}

// Resolve находит или создаёт локальный аккаунт по внешнему утверждению.
// Порядок строгий, побеждает первое совпадение:
//  1. привязка по external id;
//  2. аккаунт по email (привязка досоздаётся, если её не было);
//  3. авто-создание Account + Profile + IdentityLink одной транзакцией.
//
// Email и username существующего аккаунта никогда не меняются.
func (r *Resolver) Resolve(ctx context.Context, as Assertion) (*models.Account, error) {
	if as.ExternalID == "" {
		return nil, fmt.Errorf("identity: empty external id")
	}

	/* 1) по external id */
	acc, err := r.store.AccountByExternalID(ctx, as.ExternalID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	/* 2) по email */
	if as.Email != "" {
		acc, err = r.store.AccountByEmail(ctx, as.Email)
		if err == nil {
			if _, lerr := r.store.LinkByAccount(ctx, acc.ID); errors.Is(lerr, repo.ErrNotFound) {
				link := r.newLink(as)
				link.AccountID = acc.ID
				if cerr := r.store.CreateLink(ctx, link); cerr != nil && !errors.Is(cerr, repo.ErrConflict) {
					return nil, cerr
				}
			} else if lerr != nil {
				return nil, lerr
			}
			return acc, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	/* 3) авто-создание */
	base := usernameBase(as.Email, as.DisplayName, as.ExternalID)
	username, err := freeUsernameFor(ctx, r.store, base)
	if err != nil {
		return nil, err
	}

	acc, err = r.provision(ctx, as, username)
	if errors.Is(err, repo.ErrConflict) {
		// Гонка двух резолюций одной новой учётки: уникальный индекс
		// сработал у проигравшего. Одна повторная попытка со
		// случайным суффиксом имени.
		retry := "u_" + uuid.New().String()[:8]
		acc, err = r.provision(ctx, as, retry)
	}
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
		}
		return nil, err
	}

	if r.artifacts != nil {
		if aerr := r.artifacts.Ensure(ctx, acc.ID); aerr != nil {
			logs.Logger.Warnf("identity: support artifacts for account %d: %v", acc.ID, aerr)
		}
	}
	return acc, nil
}

func (r *Resolver) provision(ctx context.Context, as Assertion, username string) (*models.Account, error) {
	first, last := splitDisplayName(as.DisplayName)

	// Пароль случайный и нигде не показывается: вход через внешнего
	// провайдера паролем не пользуется.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		Username:     username,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
	}
	if as.Email != "" {
		email := as.Email
		acc.Email = &email
	}
	prof := &models.Profile{Role: models.RoleCustomer}
	link := r.newLink(as)

	if err := r.store.Provision(ctx, acc, prof, link); err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *Resolver) newLink(as Assertion) *models.IdentityLink {
	return &models.IdentityLink{
		ExternalID: as.ExternalID,
		Provider:   as.Provider,
		Claims:     datatypes.JSON(as.RawClaims),
	}
}
