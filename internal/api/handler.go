package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"safetap/internal/auth"
	"safetap/internal/identity"
	"safetap/internal/logs"
	"safetap/internal/models"
	"safetap/internal/notify"
	"safetap/internal/repo"
	"safetap/internal/support"
	"safetap/internal/workflow"
)

// AccountDirectory — чтение и обновление аккаунтов для хендлеров.
type AccountDirectory interface {
	AccountByID(ctx context.Context, id uint) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByPhone(ctx context.Context, phone string) (*models.Account, error)
	ProfileByAccount(ctx context.Context, accountID uint) (*models.Profile, error)
	SaveAccountAndProfile(ctx context.Context, a *models.Account, p *models.Profile) error
	Technicians(ctx context.Context) ([]models.Profile, error)
}

// AssertionVerifier — проверка федеративного ID-токена.
type AssertionVerifier interface {
	Available() bool
	Verify(ctx context.Context, idToken string) (*identity.Assertion, error)
}

type Handler struct {
	verifier  *auth.Verifier
	resolver  *identity.Resolver
	registrar *identity.Registrar
	idTokens  AssertionVerifier
	tokens    *auth.TokenIssuer
	accounts  AccountDirectory
	orders    *workflow.Service
	artifacts *support.Generator
	notifier  *notify.Notifier
}

func NewHandler(
	verifier *auth.Verifier,
	resolver *identity.Resolver,
	registrar *identity.Registrar,
	idTokens AssertionVerifier,
	tokens *auth.TokenIssuer,
	accounts AccountDirectory,
	orders *workflow.Service,
	artifacts *support.Generator,
	notifier *notify.Notifier,
) *Handler {
	return &Handler{
		verifier:  verifier,
		resolver:  resolver,
		registrar: registrar,
		idTokens:  idTokens,
		tokens:    tokens,
		accounts:  accounts,
		orders:    orders,
		artifacts: artifacts,
		notifier:  notifier,
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// -------- Регистрация и вход --------

// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	res, err := h.registrar.Register(r.Context(), identity.RegisterInput{
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		PIN:           req.PIN,
		FullName:      req.FullName,
		Phone:         req.Phone,
		Division:      req.Division,
		District:      req.District,
		Thana:         req.Thana,
		Address:       req.Address,
		Role:          req.Role,
		PhoneVerified: req.PhoneVerified,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifier.VerificationEmail(req.Email, res.EmailToken)
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "registered, verification email sent",
		"user":    newUserPayload(res.Account, res.Profile),
	})
}

// POST /api/v1/auth/login — email + PIN.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if req.Email == "" || req.PIN == "" {
		badRequest(w, "email and pin are required")
		return
	}
	sess, err := h.verifier.CheckPIN(r.Context(), req.Email, req.PIN, req.BypassEmailVerification)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, "login successful", sess)
}

// POST /api/v1/auth/firebase — вход/регистрация по внешнему ID-токену.
func (h *Handler) FirebaseLogin(w http.ResponseWriter, r *http.Request) {
	var req firebaseLoginRequest
	_ = decode(r, &req) // токен может прийти и заголовком
	idToken := req.IDToken
	if idToken == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			idToken = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if idToken == "" {
		badRequest(w, "id token is required")
		return
	}
	if !h.idTokens.Available() {
		writeError(w, auth.ErrVerifierUnavailable)
		return
	}
	assertion, err := h.idTokens.Verify(r.Context(), idToken)
	if err != nil {
		writeError(w, err)
		return
	}
	acc, err := h.resolver.Resolve(r.Context(), *assertion)
	if err != nil {
		writeError(w, err)
		return
	}
	prof, err := h.accounts.ProfileByAccount(r.Context(), acc.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.tokens.Issue(acc.ID, prof.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, "login successful", &auth.Session{Token: token, Account: acc, Profile: prof})
}

// -------- Подтверждение email --------

// POST /api/v1/auth/email/send
func (h *Handler) SendEmailToken(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		badRequest(w, "email is required")
		return
	}
	token, err := h.registrar.IssueEmailToken(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifier.VerificationEmail(req.Email, token)
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "verification email sent"})
}

// POST /api/v1/auth/email/verify
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil || req.Email == "" || req.Token == "" {
		badRequest(w, "email and token are required")
		return
	}
	sess, err := h.verifier.CheckEmailToken(r.Context(), req.Email, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	// Достроить артефакты поддержки, если их ещё нет. Сбой не мешает входу.
	if aerr := h.artifacts.Ensure(r.Context(), sess.Account.ID); aerr != nil {
		logs.Logger.Warnf("api: support artifacts for account %d: %v", sess.Account.ID, aerr)
	}
	writeSession(w, "email verified", sess)
}

// -------- Телефон: одноразовые коды --------

// POST /api/v1/auth/phone/send
func (h *Handler) SendPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil || req.Phone == "" {
		badRequest(w, "phone is required")
		return
	}
	code, err := h.verifier.IssuePhoneCode(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifier.PhoneCode(req.Phone, code)
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    "verification code sent",
		"expires_in": 600,
	})
}

// POST /api/v1/auth/phone/verify и /api/v1/auth/phone/login —
// один и тот же одноразовый код, проверка и сессия.
func (h *Handler) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil || req.Phone == "" || req.Code == "" {
		badRequest(w, "phone and code are required")
		return
	}
	sess, err := h.verifier.CheckPhoneCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, "phone verified", sess)
}

// -------- Текущий пользователь --------

// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sub, ok := auth.FromContext(r.Context())
	if !ok {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "no authenticated subject", nil)
		return
	}
	acc, err := h.accounts.AccountByID(r.Context(), sub.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	prof, err := h.accounts.ProfileByAccount(r.Context(), sub.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, newUserPayload(acc, prof))
}

// PUT /api/v1/auth/me — пользователь правит собственный профиль.
// Роль и доступность отсюда не меняются.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sub, ok := auth.FromContext(r.Context())
	if !ok {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "no authenticated subject", nil)
		return
	}
	h.applyProfileUpdate(w, r, sub.AccountID, false)
}

// PUT /api/v1/users/{id} — административная правка любого аккаунта,
// включая роль и доступность.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}
	h.applyProfileUpdate(w, r, uint(id), true)
}

func (h *Handler) applyProfileUpdate(w http.ResponseWriter, r *http.Request, accountID uint, adminFields bool) {
	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if !adminFields && (req.Role != nil || req.Available != nil) {
		models.WriteProblem(w, http.StatusForbidden, "Forbidden",
			"role and availability are managed by administrators", nil)
		return
	}
	ctx := r.Context()
	acc, err := h.accounts.AccountByID(ctx, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	prof, err := h.accounts.ProfileByAccount(ctx, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Email != nil && (acc.Email == nil || *acc.Email != *req.Email) {
		if err := h.checkContactFree(ctx, accountID, "email", *req.Email); err != nil {
			writeError(w, err)
			return
		}
		email := *req.Email
		acc.Email = &email
	}
	if req.Phone != nil && (acc.Phone == nil || *acc.Phone != *req.Phone) {
		if err := h.checkContactFree(ctx, accountID, "phone", *req.Phone); err != nil {
			writeError(w, err)
			return
		}
		phone := *req.Phone
		acc.Phone = &phone
	}
	if req.FirstName != nil {
		acc.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.LastName = *req.LastName
	}
	if req.Division != nil {
		prof.ServiceDivision = *req.Division
	}
	if req.District != nil {
		prof.ServiceDistrict = *req.District
	}
	if req.Thana != nil {
		prof.ServiceThana = *req.Thana
	}
	if req.Address != nil {
		prof.Address = *req.Address
	}
	if adminFields {
		if req.Role != nil {
			if !models.ValidRole(*req.Role) {
				badRequest(w, fmt.Sprintf("unknown role %q", *req.Role))
				return
			}
			prof.Role = *req.Role
		}
		if req.Available != nil {
			prof.Available = *req.Available
		}
	}

	if err := h.accounts.SaveAccountAndProfile(ctx, acc, prof); err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    newUserPayload(acc, prof),
	})
}

// checkContactFree не даёт увести email или телефон у другого аккаунта.
func (h *Handler) checkContactFree(ctx context.Context, selfID uint, kind, value string) error {
	var other *models.Account
	var err error
	switch kind {
	case "email":
		other, err = h.accounts.AccountByEmail(ctx, value)
	default:
		other, err = h.accounts.AccountByPhone(ctx, value)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != selfID {
		return fmt.Errorf("%w: %s is already in use", repo.ErrConflict, kind)
	}
	return nil
}

// GET /api/v1/technicians
func (h *Handler) Technicians(w http.ResponseWriter, r *http.Request) {
	profs, err := h.accounts.Technicians(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(profs))
	for _, p := range profs {
		row := map[string]any{
			"account_id":       p.AccountID,
			"available":        p.Available,
			"rating":           p.Rating,
			"completed_jobs":   p.CompletedJobs,
			"service_division": p.ServiceDivision,
			"service_district": p.ServiceDistrict,
			"service_thana":    p.ServiceThana,
		}
		if acc, err := h.accounts.AccountByID(r.Context(), p.AccountID); err == nil {
			row["username"] = acc.Username
			row["first_name"] = acc.FirstName
			row["last_name"] = acc.LastName
		}
		out = append(out, row)
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func writeSession(w http.ResponseWriter, message string, sess *auth.Session) {
	models.WriteJSON(w, http.StatusOK, sessionResponse{
		Message: message,
		Token:   sess.Token,
		User:    newUserPayload(sess.Account, sess.Profile),
	})
}
