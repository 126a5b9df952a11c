// Command month builds and publishes the monthly report on a schedule.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"irus/app"
	"irus/config"
	"irus/logger"
	"irus/models"
	"irus/services"
)

var (
	log      *zap.Logger
	loc      *time.Location
	reporter services.MonthlyReporter
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
	loc = cfg.Location()
	reporter = app.New(cfg, awsCfg, log).MonthReport
}

func handler(ctx context.Context, in models.MonthInput) (string, error) {
	month := in.Month
	if month == "" {
		month = models.PreviousMonth(time.Now().In(loc))
	}
	if !models.ValidMonth(month) {
		return "", fmt.Errorf("month must be YYYYMM: %q", month)
	}
	msg, err := reporter(ctx, month)
	if err != nil {
		logger.WithRequest(ctx, log).Error("month report failed", zap.String("month", month), zap.Error(err))
		return "", err
	}
	logger.WithRequest(ctx, log).Info("month report published", zap.String("month", month))
	return msg, nil
}

func main() {
	lambda.Start(handler)
}
