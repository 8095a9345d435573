package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/gradesrvc"
	"github.com/programme-lv/grader/http"
	"github.com/programme-lv/grader/jobrunner"
	"github.com/programme-lv/grader/sandbox"
)

func main() {
	_ = godotenv.Load() // optional in production

	confPath := flag.String("config", "grader.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := conf.Load(*confPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if cfg.JwtKey == "" {
		slog.Error("no JWT key configured; set GRADER_JWT_KEY or jwt_key")
		os.Exit(1)
	}

	logger := slog.Default()
	ctx := context.Background()

	needsAws := cfg.OutcomeBucket != ""
	for _, b := range cfg.Backends {
		if b.Type == "sqs" && b.Enabled {
			needsAws = true
		}
	}
	var sqsClient *sqs.Client
	var s3Client *s3.Client
	if needsAws {
		awsConf, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AwsRegion))
		if err != nil {
			slog.Error("loading AWS config", "error", err)
			os.Exit(1)
		}
		sqsClient = sqs.NewFromConfig(awsConf)
		s3Client = s3.NewFromConfig(awsConf)
	}

	var entries []sandbox.Entry
	for _, b := range cfg.Backends {
		switch b.Type {
		case "jobe":
			entries = append(entries, sandbox.Entry{
				Sandbox: sandbox.NewJobeSandbox(b.Server, b.ApiKey, logger),
				Enabled: b.Enabled,
			})
		case "sqs":
			entries = append(entries, sandbox.Entry{
				Sandbox: sandbox.NewSqsSandbox(
					sqsClient, b.SubmQUrl, b.RespQUrl, b.Languages, logger),
				Enabled: b.Enabled,
			})
		}
	}
	registry := sandbox.NewRegistry(entries...)

	var repo gradesrvc.OutcomeRepo
	if cfg.OutcomeBucket != "" {
		repo = gradesrvc.NewS3OutcomeRepo(s3Client, cfg.OutcomeBucket)
	} else {
		repo = gradesrvc.NewInMemOutcomeRepo()
	}

	runner := jobrunner.NewRunner(registry, logger)
	gradeSrvc := gradesrvc.NewGradeService(runner, repo)
	httpServer := http.NewHttpServer(gradeSrvc, registry, []byte(cfg.JwtKey), cfg.AllowedOrigins)

	log.Printf("Starting server on %s", cfg.ListenAddr)
	err = httpServer.Start(cfg.ListenAddr)
	log.Printf("Server stopped with error: %v", err)
}
