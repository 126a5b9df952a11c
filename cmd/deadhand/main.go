// Command deadhand reports an unrecoverable workflow failure to the interaction.
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

func handler(ctx context.Context, in models.DeadhandInput) (string, error) {
	msg := in.Message()
	l := logger.WithRequest(ctx, log)
	l.Error("workflow failed", zap.String("error", in.Error), zap.String("cause", in.Cause))
	if err := poster.Post(ctx, in.Post, msg); err != nil {
		l.Error("failed to post deadhand notification", zap.Error(err))
		return "", err
	}
	return msg, nil
}

func main() {
	lambda.Start(handler)
}
