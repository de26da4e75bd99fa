package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"safetap/internal/logs"
)

// SMSSender — доставка одноразового кода, best-effort.
type SMSSender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSMSSender печатает код в лог: поведение при недоступном
// SMS-провайдере, код остаётся доступен оператору.
type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, phone, code string) error {
	logs.Logger.Infof("sms (log only) phone=%s code=%s", phone, code)
	return nil
}

// Notifier рассылает уведомления в фоне. Ошибки доставки
// логируются и глотаются, автоматических повторов нет.
type Notifier struct {
	mail     Mailer
	sms      SMSSender
	frontURL string // база фронтенда для ссылок в письмах
}

func NewNotifier(mail Mailer, sms SMSSender, frontURL string) *Notifier {
	return &Notifier{mail: mail, sms: sms, frontURL: strings.TrimRight(frontURL, "/")}
}

const sendTimeout = 15 * time.Second

// VerificationEmail шлёт ссылку подтверждения email (fire-and-forget).
func (n *Notifier) VerificationEmail(email, token string) {
	link := fmt.Sprintf("%s/verify-email?email=%s&token=%s",
		n.frontURL, url.QueryEscape(email), url.QueryEscape(token))
	body := "Welcome to SafeTap!\n\n" +
		"Confirm your email address by opening the link below:\n\n" +
		link + "\n\n" +
		"If you did not sign up, ignore this message.\n"
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.mail.Send(ctx, email, "Verify your SafeTap email", body); err != nil {
			logs.Logger.Warnf("notify: verification email to %s: %v", email, err)
		}
	}()
}

// PhoneCode шлёт одноразовый код на телефон (fire-and-forget).
func (n *Notifier) PhoneCode(phone, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.sms.Send(ctx, phone, code); err != nil {
			logs.Logger.Warnf("notify: sms code to %s: %v (code=%s)", phone, err, code)
		}
	}()
}
