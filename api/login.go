package handler

import (
	"net/http"

	"cadastro-api/internal/app"
)

// Login serves POST /api/login.
func Login(w http.ResponseWriter, r *http.Request) {
	app.Lazy().Handler().ServeHTTP(w, r)
}
