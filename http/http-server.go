package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/programme-lv/grader/gradesrvc"
	"github.com/programme-lv/grader/sandbox"
)

type HttpServer struct {
	gradeSrvc *gradesrvc.GradeService
	registry  *sandbox.Registry
	router    *chi.Mux
	logger    *slog.Logger
}

func NewHttpServer(
	gradeSrvc *gradesrvc.GradeService,
	registry *sandbox.Registry,
	jwtKey []byte,
	allowedOrigins []string,
) *HttpServer {
	router := chi.NewRouter()

	logger := httplog.NewLogger("grader", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": "dev",
		},
	})

	router.Use(httplog.RequestLogger(logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	if len(jwtKey) > 0 {
		router.Use(getJwtAuthMiddleware(jwtKey))
	}

	server := &HttpServer{
		gradeSrvc: gradeSrvc,
		registry:  registry,
		router:    router,
		logger:    logger.Logger,
	}

	server.routes()

	return server
}

func (httpserver *HttpServer) Start(address string) error {
	return http.ListenAndServe(address, httpserver.router)
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Post("/grade", httpserver.gradeSubmission)
	r.Post("/precheck", httpserver.precheckSubmission)
	r.Get("/languages", httpserver.listLanguages)
	r.Get("/outcomes/{key}", httpserver.getOutcome)
}
