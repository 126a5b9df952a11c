// Command bot is the API Gateway Lambda that answers Discord interactions and
// serves the REST API.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"go.uber.org/zap"

	"irus/app"
	"irus/config"
	"irus/logger"
	"irus/services"
)

var (
	log     *zap.Logger
	adapter *gorillamux.GorillaMuxAdapter
)

// Cold start: build the router once per container.
func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if log, err = logger.New(cfg.LogLevel); err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	if err := cfg.Require("TABLE_NAME", "BUCKET_NAME", "PROCESS_STEP_FUNC", "POST_STEP_FUNC"); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	awsCfg, err := services.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("failed to load AWS config", zap.Error(err))
	}
	a := app.New(cfg, awsCfg, log)
	router, err := a.Router(ctx, app.NewSFNStarter(awsCfg, log))
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}
	adapter = gorillamux.New(router)
	log.Info("bot cold start", zap.String("function", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")))
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithRequest(ctx, log).Debug("request", zap.String("method", req.HTTPMethod), zap.String("path", req.Path))
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
