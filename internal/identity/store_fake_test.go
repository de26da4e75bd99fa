package identity

import (
	"context"
	"sync"

	"safetap/internal/models"
	"safetap/internal/repo"
)

// fakeStore — память вместо БД; реализует Store и RegistrarStore.
// Чтения аккаунтов и профилей отдают копии строк.
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[uint]*models.Account
	profiles map[uint]*models.Profile // по account id
	links    map[string]*models.IdentityLink

	failProvisions int   // первые N Provision падают конфликтом
	failSave       error // если не nil, совместное сохранение падает
	provisionCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[uint]*models.Account{},
		profiles: map[uint]*models.Profile{},
		links:    map[string]*models.IdentityLink{},
	}
}

func (f *fakeStore) AccountByExternalID(_ context.Context, externalID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[externalID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *f.accounts[link.AccountID]
	return &cp, nil
}

func (f *fakeStore) AccountByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email != nil && *a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) AccountByPhone(_ context.Context, phone string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Phone != nil && *a.Phone == phone {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) LinkByAccount(_ context.Context, accountID uint) (*models.IdentityLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.AccountID == accountID {
			return l, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) CreateLink(_ context.Context, link *models.IdentityLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[link.ExternalID]; ok {
		return repo.ErrConflict
	}
	f.links[link.ExternalID] = link
	return nil
}

func (f *fakeStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Provision(_ context.Context, acc *models.Account, prof *models.Profile, link *models.IdentityLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisionCalls++
	if f.provisionCalls <= f.failProvisions {
		return repo.ErrConflict
	}
	for _, a := range f.accounts {
		if a.Username == acc.Username {
			return repo.ErrConflict
		}
		if acc.Email != nil && a.Email != nil && *a.Email == *acc.Email {
			return repo.ErrConflict
		}
	}
	if _, ok := f.links[link.ExternalID]; ok {
		return repo.ErrConflict
	}
	f.nextID++
	acc.ID = f.nextID
	prof.AccountID = acc.ID
	link.AccountID = acc.ID
	f.accounts[acc.ID] = acc
	f.profiles[acc.ID] = prof
	f.links[link.ExternalID] = link
	return nil
}

func (f *fakeStore) CreateAccount(_ context.Context, acc *models.Account, prof *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Username == acc.Username {
			return repo.ErrConflict
		}
		if acc.Email != nil && a.Email != nil && *a.Email == *acc.Email {
			return repo.ErrConflict
		}
		if acc.Phone != nil && a.Phone != nil && *a.Phone == *acc.Phone {
			return repo.ErrConflict
		}
	}
	f.nextID++
	acc.ID = f.nextID
	prof.AccountID = acc.ID
	f.accounts[acc.ID] = acc
	f.profiles[acc.ID] = prof
	return nil
}

func (f *fakeStore) ProfileByAccount(_ context.Context, accountID uint) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[accountID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SaveAccount(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeStore) SaveProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.AccountID] = p
	return nil
}

func (f *fakeStore) SaveAccountAndProfile(_ context.Context, a *models.Account, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	f.accounts[a.ID] = a
	f.profiles[p.AccountID] = p
	return nil
}
