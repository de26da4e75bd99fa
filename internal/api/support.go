package api

import (
	"net/http"

	"safetap/internal/logs"
	"safetap/internal/models"
)

// GET /api/v1/support/{id} — ссылка поддержки и её QR. Пустые
// артефакты достраиваются при чтении.
func (h *Handler) SupportInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	prof, err := h.accounts.ProfileByAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if prof.SupportURL == "" || prof.QRCode == "" {
		if aerr := h.artifacts.Ensure(r.Context(), id); aerr != nil {
			logs.Logger.Warnf("api: support artifacts for account %d: %v", id, aerr)
		}
		if prof, err = h.accounts.ProfileByAccount(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{
		"support_url": prof.SupportURL,
		"qr_code":     prof.QRCode,
	})
}

// POST /api/v1/support/{id}/regenerate — безусловный пересчёт
// артефактов (действие администратора).
func (h *Handler) RegenerateSupport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	prof, err := h.artifacts.Regenerate(r.Context(), id)
	if err != nil {
		if prof == nil {
			writeError(w, err)
			return
		}
		// Кодировщик упал: ссылка сохранена, QR пуст, можно повторить.
		logs.Logger.Warnf("api: regenerate artifacts for account %d: %v", id, err)
		models.WriteJSON(w, http.StatusAccepted, map[string]string{
			"message":     "artifact generation failed, retry later",
			"support_url": prof.SupportURL,
		})
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{
		"message":     "artifacts regenerated",
		"support_url": prof.SupportURL,
		"qr_code":     prof.QRCode,
	})
}
