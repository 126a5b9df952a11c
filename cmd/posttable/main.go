// Command posttable posts a sequence of messages to an interaction webhook.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"irus/config"
	"irus/logger"
	"irus/models"
	"irus/services"
)

var (
	log    *zap.Logger
	poster services.Poster
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if log, err = logger.New(cfg.LogLevel); err != nil {
		panic(err)
	}
	poster = services.NewWebhook(log)
}

func handler(ctx context.Context, in models.PostTableInput) (int, error) {
	if err := poster.PostAll(ctx, in); err != nil {
		logger.WithRequest(ctx, log).Error("post failed", zap.Int("count", in.Count), zap.Error(err))
		return 0, err
	}
	return len(in.Msg), nil
}

func main() {
	lambda.Start(handler)
}
