package support

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"safetap/internal/models"
)

// Размер растра QR в пикселях.
const qrSize = 256

type Store interface {
	ProfileByAccount(ctx context.Context, accountID uint) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) error
}

// Generator строит артефакты поддержки: детерминированную ссылку
// <base>/support/<id> и её QR (base64 PNG). QR — кэш, не криптография.
type Generator struct {
	store   Store
	baseURL string
}

func NewGenerator(store Store, baseURL string) *Generator {
	return &Generator{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *Generator) SupportURL(accountID uint) string {
	return g.baseURL + "/support/" + strconv.FormatUint(uint64(accountID), 10)
}

// Ensure идемпотентно заполняет пустые артефакты профиля.
// При ошибке кодировщика профиль сохраняется со ссылкой и пустым QR:
// исправимо при следующем чтении, поток вызова не прерывается.
func (g *Generator) Ensure(ctx context.Context, accountID uint) error {
	prof, err := g.store.ProfileByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if prof.SupportURL != "" && prof.QRCode != "" {
		return nil
	}
	return g.fill(ctx, accountID, prof)
}

// Regenerate пересчитывает и перезаписывает оба поля безусловно
// (явное действие администратора).
func (g *Generator) Regenerate(ctx context.Context, accountID uint) (*models.Profile, error) {
	prof, err := g.store.ProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	prof.SupportURL = ""
	prof.QRCode = ""
	if err := g.fill(ctx, accountID, prof); err != nil {
		return prof, err
	}
	return prof, nil
}

func (g *Generator) fill(ctx context.Context, accountID uint, prof *models.Profile) error {
	if prof.SupportURL == "" {
		prof.SupportURL = g.SupportURL(accountID)
	}
	var encErr error
	if prof.QRCode == "" {
		prof.QRCode, encErr = encodeQR(prof.SupportURL)
	}
	if err := g.store.SaveProfile(ctx, prof); err != nil {
		return err
	}
	if encErr != nil {
		return fmt.Errorf("support: qr encode: %w", encErr)
	}
	return nil
}

// encodeQR кодирует ссылку в PNG (коррекция Low, рамка 4 модуля —
// дефолт кодировщика) и возвращает base64.
func encodeQR(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Low, qrSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
