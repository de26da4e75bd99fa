package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"safetap/internal/identity"
)

// ErrVerifierUnavailable — верификатор не сконфигурирован или
// недоступен. Для путей аутентификации ошибка отдаётся наружу.
var ErrVerifierUnavailable = errors.New("identity verifier unavailable")

// Публичные сертификаты издателя ID-токенов.
const certsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// IDTokenConfig — явная конфигурация верификатора вместо глобальных
// флагов "инициализирован ли провайдер".
type IDTokenConfig struct {
	ProjectID string // пусто — верификатор выключен
	CertsURL  string // дефолт certsURL, переопределяется в тестах
	CacheTTL  time.Duration
}

// IDTokenVerifier проверяет подпись и claims федеративного ID-токена
// и выдаёт утверждение для резолвера аккаунтов.
type IDTokenVerifier struct {
	cfg    IDTokenConfig
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	certs     map[string]string // kid → PEM
	certsFrom time.Time
}

func NewIDTokenVerifier(cfg IDTokenConfig) *IDTokenVerifier {
	if cfg.CertsURL == "" {
		cfg.CertsURL = certsURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &IDTokenVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// Available сообщает, можно ли вообще проверять внешние токены.
func (v *IDTokenVerifier) Available() bool { return v.cfg.ProjectID != "" }

// Verify разбирает и проверяет ID-токен: подпись RS256 по
// опубликованным сертификатам, издатель и аудитория — наш проект.
func (v *IDTokenVerifier) Verify(ctx context.Context, idToken string) (*identity.Assertion, error) {
	if !v.Available() {
		return nil, ErrVerifierUnavailable
	}

	parsed, err := jwt.Parse(idToken, func(tok *jwt.Token) (any, error) {
		kid, _ := tok.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		pemCert, err := v.cert(ctx, kid)
		if err != nil {
			return nil, err
		}
		return jwt.ParseRSAPublicKeyFromPEM([]byte(pemCert))
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.cfg.ProjectID),
		jwt.WithAudience(v.cfg.ProjectID),
	)
	if err != nil {
		var uerr *unavailableError
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, uerr.err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidCredential
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	raw, _ := json.Marshal(claims)

	return &identity.Assertion{
		ExternalID:  sub,
		Email:       email,
		DisplayName: name,
		Provider:    "firebase",
		RawClaims:   raw,
	}, nil
}

// unavailableError отличает сетевую недоступность сертификатов
// от невалидного токена.
type unavailableError struct{ err error }

func (e *unavailableError) Error() string { return e.err.Error() }
func (e *unavailableError) Unwrap() error { return e.err }

func (v *IDTokenVerifier) cert(ctx context.Context, kid string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.certs == nil || v.now().Sub(v.certsFrom) > v.cfg.CacheTTL {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.CertsURL, nil)
		if err != nil {
			return "", &unavailableError{err}
		}
		resp, err := v.client.Do(req)
		if err != nil {
			return "", &unavailableError{err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", &unavailableError{fmt.Errorf("certs endpoint status %d", resp.StatusCode)}
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", &unavailableError{err}
		}
		var certs map[string]string
		if err := json.Unmarshal(body, &certs); err != nil {
			return "", &unavailableError{err}
		}
		v.certs = certs
		v.certsFrom = v.now()
	}

	pemCert, ok := v.certs[kid]
	if !ok {
		return "", fmt.Errorf("unknown signing key %q", kid)
	}
	return pemCert, nil
}
