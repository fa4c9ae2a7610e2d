package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	boardHandler *BoardHandler,
	progressHandler *ProgressHandler,
	authMiddleware func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /board", boardHandler.Board)
	api.HandleFunc("POST /board/cards", boardHandler.CreateCard)
	api.HandleFunc("PATCH /board/cards/{id}", boardHandler.UpdateCard)
	api.HandleFunc("DELETE /board/cards/{id}", boardHandler.DeleteCard)
	api.HandleFunc("GET /dash", progressHandler.Dashboard)
	api.HandleFunc("GET /badges", progressHandler.Badges)
	api.HandleFunc("GET /me", progressHandler.Me)

	root := http.NewServeMux()
	// Auth endpoints guard themselves (rate limiter, refresh cookie);
	// everything else requires a valid access token
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", authHandler.Handler()))
	root.Handle("/api/", http.StripPrefix("/api", authMiddleware(api)))

	return chain(root, middlewares...)
}
