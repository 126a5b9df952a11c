// Command process is the Step Functions task that downloads one attachment and
// extracts its ladder.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"irus/app"
	"irus/config"
	"irus/logger"
	"irus/models"
	"irus/services"
)

var (
	log       *zap.Logger
	processor services.FileProcessor
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if log, err = logger.New(cfg.LogLevel); err != nil {
		panic(err)
	}
	if err := cfg.Require("TABLE_NAME", "BUCKET_NAME"); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	awsCfg, err := services.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatal("failed to load AWS config", zap.Error(err))
	}
	processor = app.New(cfg, awsCfg, log).Process
}

// handler returns errors so the state machine Retry and Catch apply.
func handler(ctx context.Context, in models.FileInput) (*models.ProcessResult, error) {
	l := logger.WithRequest(ctx, log).With(zap.String("invasion", in.Invasion), zap.String("filename", in.Filename))
	res, err := processor.Process(ctx, in)
	if err != nil {
		l.Error("process failed", zap.Error(err))
		return nil, err
	}
	res.Posts = services.ResultPosts(res)
	l.Info("processed file", zap.Int("status", res.StatusCode), zap.Int("posts", len(res.Posts)))
	return res, nil
}

func main() {
	lambda.Start(handler)
}
