package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/chirpd/microblog/internal/auth"
	"github.com/chirpd/microblog/internal/httpmw"
	"github.com/chirpd/microblog/internal/monitoring"
)

func setupServer(services *Services, port string) *http.Server {
	router := mux.NewRouter()
	router.Use(httpmw.RequestID, httpmw.AccessLog, httpmw.Recover, monitoring.Instrument)

	registerRoutes(router, services)
	setupHealthCheck(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	handler := c.Handler(router)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerRoutes(router *mux.Router, services *Services) {
	// Bearer-token gate for everything that mutates state.
	authRequired := auth.Middleware(services.Tokens, services.UsersApp)

	us, ss, ps := services.Users, services.Social, services.Posts

	router.HandleFunc("/users/", us.Register).Methods(http.MethodPost)
	router.HandleFunc("/token", us.Login).Methods(http.MethodPost)

	router.Handle("/users/{id:[0-9]+}/follow",
		authRequired(http.HandlerFunc(ss.Follow))).Methods(http.MethodPost)
	router.Handle("/users/{id:[0-9]+}/unfollow",
		authRequired(http.HandlerFunc(ss.Unfollow))).Methods(http.MethodPost)
	router.HandleFunc("/users/{id:[0-9]+}/followers", ss.Followers).Methods(http.MethodGet)
	router.HandleFunc("/users/{id:[0-9]+}/following", ss.Following).Methods(http.MethodGet)

	router.HandleFunc("/posts/", ps.List).Methods(http.MethodGet)
	router.Handle("/posts/",
		authRequired(http.HandlerFunc(ps.Create))).Methods(http.MethodPost)
	router.HandleFunc("/posts/with_counts/", ps.ListWithCounts).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id:[0-9]+}", ps.Get).Methods(http.MethodGet)
	router.Handle("/posts/{id:[0-9]+}",
		authRequired(http.HandlerFunc(ps.Update))).Methods(http.MethodPut)
	router.Handle("/posts/{id:[0-9]+}",
		authRequired(http.HandlerFunc(ps.Delete))).Methods(http.MethodDelete)

	router.Handle("/posts/{id:[0-9]+}/like",
		authRequired(http.HandlerFunc(ps.Like))).Methods(http.MethodPost)
	router.Handle("/posts/{id:[0-9]+}/unlike",
		authRequired(http.HandlerFunc(ps.Unlike))).Methods(http.MethodPost)
	router.Handle("/posts/{id:[0-9]+}/retweet",
		authRequired(http.HandlerFunc(ps.Retweet))).Methods(http.MethodPost)
	router.Handle("/posts/{id:[0-9]+}/unretweet",
		authRequired(http.HandlerFunc(ps.Unretweet))).Methods(http.MethodPost)
}

func setupHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	}).Methods(http.MethodGet)
}
