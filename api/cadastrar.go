// Package handler holds the serverless entrypoints. Each file exports one
// function per route; all of them share the application built by app.Lazy.
package handler

import (
	"net/http"

	"cadastro-api/internal/app"
)

// Cadastrar serves POST /api/cadastrar.
func Cadastrar(w http.ResponseWriter, r *http.Request) {
	app.Lazy().Handler().ServeHTTP(w, r)
}
