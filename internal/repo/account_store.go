package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"safetap/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("uniqueness conflict")
)

// translate приводит ошибки gorm к доменным sentinel-ошибкам.
// Требует TranslateError: true при открытии БД (см. internal/db).
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

type AccountStore struct{ db *gorm.DB }

func NewAccountStore(db *gorm.DB) *AccountStore { return &AccountStore{db: db} }

// -------- Поиск --------

func (s *AccountStore) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *AccountStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *AccountStore) AccountByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// AccountByExternalID ищет аккаунт через привязку внешней учётки.
func (s *AccountStore) AccountByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	var link models.IdentityLink
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.AccountByID(ctx, link.AccountID)
}

func (s *AccountStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// -------- Привязки внешних учёток --------

func (s *AccountStore) LinkByAccount(ctx context.Context, accountID uint) (*models.IdentityLink, error) {
	var link models.IdentityLink
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *AccountStore) CreateLink(ctx context.Context, link *models.IdentityLink) error {
	return translate(s.db.WithContext(ctx).Create(link).Error)
}

// -------- Создание --------

// CreateAccount создаёт аккаунт вместе с профилем в одной транзакции.
func (s *AccountStore) CreateAccount(ctx context.Context, acc *models.Account, prof *models.Profile) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}
		prof.AccountID = acc.ID
		return tx.Create(prof).Error
	})
	return translate(err)
}

// Provision — атомарное создание Account + Profile + IdentityLink.
// Либо все три строки, либо ни одной: гонки конкурентной регистрации
// разруливает уникальный индекс, а не блокировки приложения.
func (s *AccountStore) Provision(ctx context.Context, acc *models.Account, prof *models.Profile, link *models.IdentityLink) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}
		prof.AccountID = acc.ID
		if err := tx.Create(prof).Error; err != nil {
			return err
		}
		link.AccountID = acc.ID
		return tx.Create(link).Error
	})
	return translate(err)
}

// -------- Профили --------

func (s *AccountStore) ProfileByAccount(ctx context.Context, accountID uint) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *AccountStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *AccountStore) SaveAccount(ctx context.Context, a *models.Account) error {
	return translate(s.db.WithContext(ctx).Save(a).Error)
}

// SaveAccountAndProfile сохраняет обе строки одной транзакцией:
// стирание одноразового кода и флаг верификации не должны разъехаться
// при частичном сбое.
func (s *AccountStore) SaveAccountAndProfile(ctx context.Context, a *models.Account, p *models.Profile) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return tx.Save(p).Error
	})
	return translate(err)
}

// Technicians — профили с ролью technician, сначала с лучшим рейтингом.
func (s *AccountStore) Technicians(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleTechnician).
		Order("rating desc").
		Find(&out).Error
	return out, err
}
