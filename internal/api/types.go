package api

import (
	"time"

	"safetap/internal/models"
)

// Входные структуры перечисляют допустимые поля явно —
// никаких произвольных словарей в payload-ах.

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	PIN      string `json:"pin"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`

	Division string `json:"division"`
	District string `json:"district"`
	Thana    string `json:"thana"`
	Address  string `json:"address"`

	Role          string `json:"role"`
	PhoneVerified bool   `json:"is_phone_verified"`
}

type loginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
	// Только для доверенных внутренних вызовов.
	BypassEmailVerification bool `json:"bypass_email_verification"`
}

type firebaseLoginRequest struct {
	IDToken string `json:"id_token"`
}

type emailRequest struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code,omitempty"`
}

type createOrderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`

	CustomerID uint  `json:"customer_id,omitempty"` // только admin
	AssigneeID *uint `json:"assignee_id,omitempty"` // только admin

	Division    string `json:"division"`
	District    string `json:"district"`
	Thana       string `json:"thana"`
	FullAddress string `json:"full_address"`

	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	EstimatedCost *float64   `json:"estimated_cost,omitempty"`
	Attachments   []string   `json:"attachments,omitempty"`
}

// updateProfileRequest — частичное обновление: указатели различают
// «поле не прислано» и «прислано пустым».
type updateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`

	Division *string `json:"division,omitempty"`
	District *string `json:"district,omitempty"`
	Thana    *string `json:"thana,omitempty"`
	Address  *string `json:"address,omitempty"`

	// Только для администратора.
	Role      *string `json:"role,omitempty"`
	Available *bool   `json:"available,omitempty"`
}

type transitionRequest struct {
	Status     string `json:"status"`
	Note       string `json:"note"`
	AssigneeID *uint  `json:"assignee_id,omitempty"`
}

// userPayload — представление пользователя в ответах аутентификации.
type userPayload struct {
	ID            uint    `json:"id"`
	Username      string  `json:"username"`
	Email         *string `json:"email,omitempty"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Phone         *string `json:"phone,omitempty"`
	Role          string  `json:"role"`
	EmailVerified bool    `json:"email_verified"`
	PhoneVerified bool    `json:"phone_verified"`
	SupportURL    string  `json:"support_url,omitempty"`
	QRCode        string  `json:"qr_code,omitempty"`
}

type sessionResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

func newUserPayload(acc *models.Account, prof *models.Profile) userPayload {
	p := userPayload{
		ID:            acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		FirstName:     acc.FirstName,
		LastName:      acc.LastName,
		Phone:         acc.Phone,
		EmailVerified: acc.EmailVerified,
		PhoneVerified: acc.PhoneVerified,
	}
	if prof != nil {
		p.Role = prof.Role
		p.SupportURL = prof.SupportURL
		p.QRCode = prof.QRCode
	}
	return p
}
