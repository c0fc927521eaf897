package handler

import (
	"net/http"

	"cadastro-api/internal/app"
)

// Confirmar serves GET /api/confirmar.
func Confirmar(w http.ResponseWriter, r *http.Request) {
	app.Lazy().Handler().ServeHTTP(w, r)
}
