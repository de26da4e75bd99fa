package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetap/internal/auth"
	"safetap/internal/identity"
	"safetap/internal/logs"
	"safetap/internal/models"
	"safetap/internal/notify"
	"safetap/internal/repo"
	"safetap/internal/support"
	"safetap/internal/workflow"
)

func TestMain(m *testing.M) {
	logs.Init(logs.Options{Level: "error"})
	os.Exit(m.Run())
}

// memStore — общее in-memory хранилище под все контракты хендлеров.
type memStore struct {
	accounts map[uint]*models.Account
	profiles map[uint]*models.Profile
	links    map[uint]*models.IdentityLink // по account id
	orders   map[uint]*models.WorkOrder
	history  []models.OrderHistory
	nextAcc  uint
	nextOrd  uint
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uint]*models.Account{},
		profiles: map[uint]*models.Profile{},
		links:    map[uint]*models.IdentityLink{},
		orders:   map[uint]*models.WorkOrder{},
		nextAcc:  1,
		nextOrd:  1,
	}
}

// -------- аккаунты --------

func (m *memStore) AccountByID(_ context.Context, id uint) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) AccountByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Email != nil && *a.Email == email {
			return a, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) AccountByPhone(_ context.Context, phone string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Phone != nil && *a.Phone == phone {
			return a, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) AccountByExternalID(_ context.Context, externalID string) (*models.Account, error) {
	for accID, l := range m.links {
		if l.ExternalID == externalID {
			return m.accounts[accID], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateAccount(_ context.Context, acc *models.Account, prof *models.Profile) error {
	acc.ID = m.nextAcc
	m.nextAcc++
	prof.AccountID = acc.ID
	m.accounts[acc.ID] = acc
	m.profiles[acc.ID] = prof
	return nil
}

func (m *memStore) Provision(ctx context.Context, acc *models.Account, prof *models.Profile, link *models.IdentityLink) error {
	if err := m.CreateAccount(ctx, acc, prof); err != nil {
		return err
	}
	link.AccountID = acc.ID
	m.links[acc.ID] = link
	return nil
}

func (m *memStore) LinkByAccount(_ context.Context, accountID uint) (*models.IdentityLink, error) {
	if l, ok := m.links[accountID]; ok {
		return l, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) CreateLink(_ context.Context, link *models.IdentityLink) error {
	m.links[link.AccountID] = link
	return nil
}

func (m *memStore) ProfileByAccount(_ context.Context, accountID uint) (*models.Profile, error) {
	if p, ok := m.profiles[accountID]; ok {
		return p, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) SaveAccount(_ context.Context, a *models.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *memStore) SaveProfile(_ context.Context, p *models.Profile) error {
	m.profiles[p.AccountID] = p
	return nil
}

func (m *memStore) SaveAccountAndProfile(_ context.Context, a *models.Account, p *models.Profile) error {
	m.accounts[a.ID] = a
	m.profiles[p.AccountID] = p
	return nil
}

func (m *memStore) Technicians(_ context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range m.profiles {
		if p.Role == models.RoleTechnician {
			out = append(out, *p)
		}
	}
	return out, nil
}

// -------- заявки --------

func (m *memStore) OrderByID(_ context.Context, id uint) (*models.WorkOrder, error) {
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) ListOrders(_ context.Context, f repo.OrderFilter) ([]models.WorkOrder, error) {
	var out []models.WorkOrder
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
			continue
		}
		if f.AssigneeID != 0 && (o.AssigneeID == nil || *o.AssigneeID != f.AssigneeID) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memStore) CreateOrder(_ context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *repo.AvailabilityChange) error {
	o.ID = m.nextOrd
	m.nextOrd++
	cp := *o
	m.orders[o.ID] = &cp
	h.OrderID = o.ID
	m.history = append(m.history, *h)
	m.applyAvail(avail)
	return nil
}

func (m *memStore) ApplyTransition(_ context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *repo.AvailabilityChange) error {
	cp := *o
	m.orders[o.ID] = &cp
	m.history = append(m.history, *h)
	m.applyAvail(avail)
	return nil
}

func (m *memStore) applyAvail(ch *repo.AvailabilityChange) {
	if ch == nil {
		return
	}
	if p, ok := m.profiles[ch.AccountID]; ok {
		p.Available = ch.Available
		if ch.IncCompleted {
			p.CompletedJobs++
		}
	}
}

func (m *memStore) DeleteOrder(_ context.Context, id uint) error {
	if _, ok := m.orders[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memStore) History(_ context.Context, orderID uint) ([]models.OrderHistory, error) {
	var out []models.OrderHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context) (*repo.OrderStats, error) {
	st := &repo.OrderStats{Total: int64(len(m.orders))}
	for _, o := range m.orders {
		switch o.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusCompleted:
			st.Completed++
		case models.StatusCancelled:
			st.Cancelled++
		}
	}
	return st, nil
}

// fakeIDTokens — федеративный верификатор с управляемым ответом.
type fakeIDTokens struct {
	available bool
	assertion *identity.Assertion
	err       error
}

func (f *fakeIDTokens) Available() bool { return f.available }

func (f *fakeIDTokens) Verify(_ context.Context, _ string) (*identity.Assertion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assertion, nil
}

type testAPI struct {
	store    *memStore
	router   *mux.Router
	idTokens *fakeIDTokens
	tokens   *auth.TokenIssuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := newMemStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	artifacts := support.NewGenerator(store, "https://safetap.example")
	idTokens := &fakeIDTokens{available: true}
	h := NewHandler(
		auth.NewVerifier(store, tokens),
		identity.NewResolver(store, artifacts),
		identity.NewRegistrar(store, artifacts),
		idTokens,
		tokens,
		store,
		workflow.NewService(store),
		artifacts,
		notify.NewNotifier(notify.LogMailer{}, notify.LogSMSSender{}, "https://app.safetap.example"),
	)
	router := mux.NewRouter()
	RegisterRoutes(router, h, tokens)
	return &testAPI{store: store, router: router, idTokens: idTokens, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// seed создаёт подтверждённый аккаунт напрямую в хранилище и
// возвращает его id и сессионный токен.
func (a *testAPI) seed(t *testing.T, email, role string) (uint, string) {
	t.Helper()
	e := email
	acc := &models.Account{Email: &e, Username: email, PIN: "1234", EmailVerified: true}
	require.NoError(t, a.store.CreateAccount(context.Background(), acc, &models.Profile{Role: role, Available: true}))
	token, err := a.tokens.Issue(acc.ID, role)
	require.NoError(t, err)
	return acc.ID, token
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "jane@x.com",
		"pin":       "1234",
		"full_name": "Jane Rahman",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Вход до подтверждения email отклоняется.
	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "jane@x.com", "pin": "1234"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Подтверждение по токену из хранилища.
	acc, err := a.store.AccountByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	prof := a.store.profiles[acc.ID]
	require.NotEmpty(t, prof.EmailToken)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/email/verify", "", map[string]any{
		"email": "jane@x.com",
		"token": prof.EmailToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Теперь вход проходит и токен открывает /auth/me.
	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "jane@x.com", "pin": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = a.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane", decodeBody(t, rec)["username"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]any{"email": "jane@x.com", "pin": "1234"}

	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginWrongPIN(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t, "jane@x.com", models.RoleCustomer)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "jane@x.com", "pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPhoneCodeFlow(t *testing.T) {
	a := newTestAPI(t)
	id, _ := a.seed(t, "jane@x.com", models.RoleCustomer)
	phone := "+8801700000001"
	a.store.accounts[id].Phone = &phone

	rec := a.do(t, http.MethodPost, "/api/v1/auth/phone/send", "", map[string]any{"phone": phone})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	code := a.store.profiles[id].PhoneCode
	require.Len(t, code, 6)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/phone/login", "", map[string]any{"phone": phone, "code": code})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])
	assert.True(t, a.store.accounts[id].PhoneVerified)
}

func TestFirebaseLogin(t *testing.T) {
	a := newTestAPI(t)
	a.idTokens.assertion = &identity.Assertion{
		ExternalID:  "fb-uid-1",
		Email:       "sam@x.com",
		DisplayName: "Sam Karim",
		Provider:    "firebase",
	}

	rec := a.do(t, http.MethodPost, "/api/v1/auth/firebase", "", map[string]any{"id_token": "opaque"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])

	// Повторный вход тем же external id не плодит аккаунтов.
	rec = a.do(t, http.MethodPost, "/api/v1/auth/firebase", "", map[string]any{"id_token": "opaque"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, a.store.accounts, 1)
}

func TestFirebaseLoginUnavailable(t *testing.T) {
	a := newTestAPI(t)
	a.idTokens.available = false

	rec := a.do(t, http.MethodPost, "/api/v1/auth/firebase", "", map[string]any{"id_token": "opaque"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFirebaseLoginBadToken(t *testing.T) {
	a := newTestAPI(t)
	a.idTokens.err = fmt.Errorf("%w: token expired", auth.ErrInvalidCredential)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/firebase", "", map[string]any{"id_token": "opaque"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	_, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	techID, techToken := a.seed(t, "tech@x.com", models.RoleTechnician)
	_, adminToken := a.seed(t, "admin@x.com", models.RoleAdmin)

	// Клиент создаёт заявку.
	rec := a.do(t, http.MethodPost, "/api/v1/orders", custToken, map[string]any{
		"title":    "low water pressure",
		"priority": models.PriorityHigh,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := uint(decodeBody(t, rec)["id"].(float64))

	// Чужой техник заявку не видит.
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), techToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Админ назначает техника.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), adminToken, map[string]any{
		"status":      models.StatusAssigned,
		"assignee_id": techID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, a.store.profiles[techID].Available)

	// Техник ведёт заявку к завершению.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), techToken, map[string]any{
		"status": models.StatusInProgress,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), techToken, map[string]any{
		"status": models.StatusCompleted,
		"note":   "filter replaced",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, a.store.profiles[techID].Available)
	assert.Equal(t, 1, a.store.profiles[techID].CompletedJobs)

	// Журнал: создание + три перехода.
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/history", orderID), custToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Len(t, hist, 4)

	// Из терминального статуса выхода нет.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), adminToken, map[string]any{
		"status": models.StatusCancelled,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderRolePolicy(t *testing.T) {
	a := newTestAPI(t)
	_, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	_, otherToken := a.seed(t, "other@x.com", models.RoleCustomer)

	rec := a.do(t, http.MethodPost, "/api/v1/orders", custToken, map[string]any{"title": "leak"})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := uint(decodeBody(t, rec)["id"].(float64))

	// Чужой клиент не видит и не отменяет.
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), otherToken, map[string]any{
		"status": models.StatusCancelled,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Владелец может только отменить.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), custToken, map[string]any{
		"status": models.StatusAssigned,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID), custToken, map[string]any{
		"status": models.StatusCancelled,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	a := newTestAPI(t)
	_, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	_, adminToken := a.seed(t, "admin@x.com", models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/v1/orders", custToken, map[string]any{"title": "leak"})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := uint(decodeBody(t, rec)["id"].(float64))

	rec = a.do(t, http.MethodGet, "/api/v1/orders/stats", custToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/orders/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", orderID), custToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", orderID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSupportInfo(t *testing.T) {
	a := newTestAPI(t)
	custID, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	_, adminToken := a.seed(t, "admin@x.com", models.RoleAdmin)

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/support/%d", custID), custToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, fmt.Sprintf("https://safetap.example/support/%d", custID), body["support_url"])
	assert.NotEmpty(t, body["qr_code"])

	// Перегенерация — только админ.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/support/%d/regenerate", custID), custToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/support/%d/regenerate", custID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTechniciansListing(t *testing.T) {
	a := newTestAPI(t)
	_, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	a.seed(t, "tech@x.com", models.RoleTechnician)

	rec := a.do(t, http.MethodGet, "/api/v1/technicians", custToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "tech@x.com", out[0]["username"])
}

func TestUpdateMe(t *testing.T) {
	a := newTestAPI(t)
	custID, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	a.seed(t, "other@x.com", models.RoleCustomer)

	rec := a.do(t, http.MethodPut, "/api/v1/auth/me", custToken, map[string]any{
		"first_name": "Jane",
		"last_name":  "Doe",
		"phone":      "+8801700000009",
		"division":   "Dhaka",
		"address":    "12 Lake Road",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	acc := a.store.accounts[custID]
	prof := a.store.profiles[custID]
	assert.Equal(t, "Jane", acc.FirstName)
	require.NotNil(t, acc.Phone)
	assert.Equal(t, "+8801700000009", *acc.Phone)
	assert.Equal(t, "Dhaka", prof.ServiceDivision)
	assert.Equal(t, "12 Lake Road", prof.Address)

	// Чужой email занять нельзя.
	rec = a.do(t, http.MethodPut, "/api/v1/auth/me", custToken, map[string]any{
		"email": "other@x.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Роль и доступность из личного кабинета не меняются.
	rec = a.do(t, http.MethodPut, "/api/v1/auth/me", custToken, map[string]any{
		"role": models.RoleAdmin,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.RoleCustomer, a.store.profiles[custID].Role)

	rec = a.do(t, http.MethodPut, "/api/v1/auth/me", "", map[string]any{"first_name": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminUpdateUser(t *testing.T) {
	a := newTestAPI(t)
	custID, custToken := a.seed(t, "cust@x.com", models.RoleCustomer)
	_, adminToken := a.seed(t, "admin@x.com", models.RoleAdmin)

	path := fmt.Sprintf("/api/v1/users/%d", custID)

	// Не-админу маршрут закрыт.
	rec := a.do(t, http.MethodPut, path, custToken, map[string]any{"role": models.RoleTechnician})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, path, adminToken, map[string]any{
		"role":      models.RoleTechnician,
		"available": false,
		"division":  "Chattogram",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prof := a.store.profiles[custID]
	assert.Equal(t, models.RoleTechnician, prof.Role)
	assert.False(t, prof.Available)
	assert.Equal(t, "Chattogram", prof.ServiceDivision)

	rec = a.do(t, http.MethodPut, path, adminToken, map[string]any{"role": "plumber"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/v1/users/9999", adminToken, map[string]any{"first_name": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
