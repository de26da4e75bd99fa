package api

import (
	"errors"
	"net/http"

	"safetap/internal/auth"
	"safetap/internal/identity"
	"safetap/internal/models"
	"safetap/internal/repo"
	"safetap/internal/workflow"
)

// writeError отображает доменные ошибки на problem+json.
// Структурные ошибки отдаются с деталями; всё прочее — 500 без них.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", err.Error(), nil)
	case errors.Is(err, repo.ErrConflict):
		models.WriteProblem(w, http.StatusConflict, "Conflict", err.Error(), nil)
	case errors.Is(err, workflow.ErrInvalidTransition):
		models.WriteProblem(w, http.StatusConflict, "Invalid Transition", err.Error(), nil)
	case errors.Is(err, auth.ErrUnverified):
		models.WriteProblem(w, http.StatusUnauthorized, "Unverified", err.Error(), map[string]any{
			"verification_required": true,
		})
	case errors.Is(err, auth.ErrCodeExpired):
		models.WriteProblem(w, http.StatusUnauthorized, "Code Expired", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredential):
		models.WriteProblem(w, http.StatusUnauthorized, "Invalid Credential", err.Error(), nil)
	case errors.Is(err, auth.ErrVerifierUnavailable):
		models.WriteProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error(), nil)
	case errors.Is(err, identity.ErrProvisioning):
		models.WriteProblem(w, http.StatusInternalServerError, "Provisioning Failed", err.Error(), nil)
	case errors.Is(err, identity.ErrEmailRequired),
		errors.Is(err, identity.ErrPINRequired),
		errors.Is(err, identity.ErrBadPIN):
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), nil)
	default:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error", nil)
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	models.WriteProblem(w, http.StatusBadRequest, "Bad Request", detail, nil)
}
