package handler

import (
	"net/http"

	"github.com/iams-api/internal/domain"
)

// ListRoles returns the role names the API recognises in tokens.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Roles)
}
