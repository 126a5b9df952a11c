// Package app wires configuration, AWS clients, services and controllers into a
// router shared by the bot Lambda and the local server.
package app

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"irus/config"
	"irus/controllers"
	"irus/routes"
	"irus/services"
)

// App holds the services built from one configuration.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Dynamo    *services.DynamoService
	Storage   *services.S3Service
	Invasions *services.InvasionService
	Members   *services.MemberService
	Ladders   *services.LadderService
	Months    *services.MonthService
	Reports   *services.ReportService
	Process   *services.ProcessService
	Webhook   *services.Webhook
	SSM       *services.SSMService
}

// New builds the services against the AWS account in awsCfg.
func New(cfg *config.Config, awsCfg aws.Config, log *zap.Logger) *App {
	dynamo := services.NewDynamoService(dynamodb.NewFromConfig(awsCfg), cfg.TableName, log)
	storage := services.NewS3Service(awsCfg, cfg.BucketName, log)
	invasions := services.NewInvasionService(dynamo)
	members := services.NewMemberService(dynamo)
	ladders := services.NewLadderService(dynamo)
	images := services.NewImageService(storage, services.ImageFactors{
		Contrast:   cfg.ImageContrastFactor,
		Saturation: cfg.ImageSaturationFactor,
	})
	reader := services.NewTextractService(textract.NewFromConfig(awsCfg), images, cfg.BucketName, log)

	return &App{
		Config:    cfg,
		Logger:    log,
		Dynamo:    dynamo,
		Storage:   storage,
		Invasions: invasions,
		Members:   members,
		Ladders:   ladders,
		Months:    services.NewMonthService(dynamo, invasions, members, ladders),
		Reports:   services.NewReportService(storage),
		Process:   services.NewProcessService(storage, reader, invasions, members, ladders, log),
		Webhook:   services.NewWebhook(log),
		SSM:       services.NewSSMService(ssm.NewFromConfig(awsCfg)),
	}
}

// NewSFNStarter returns the Step Functions starter used in Lambda.
func NewSFNStarter(awsCfg aws.Config, log *zap.Logger) *services.SFNStarter {
	return services.NewSFNStarter(sfn.NewFromConfig(awsCfg), log)
}

// ParsePublicKey decodes the hex encoded Discord application public key.
func ParsePublicKey(key string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Router resolves the bot secrets and builds the full router with workflows started by starter.
func (a *App) Router(ctx context.Context, starter services.WorkflowStarter) (*mux.Router, error) {
	if err := a.Config.ResolveSecrets(ctx, a.SSM); err != nil {
		return nil, err
	}
	key, err := ParsePublicKey(a.Config.PublicKey)
	if err != nil {
		return nil, err
	}

	loc := a.Config.Location()
	discord := services.NewDiscordService(starter, a.Config.PostStepFunc, a.Config.WebhookURL, a.Config.AppID, a.Logger)
	return routes.NewRouter(routes.Controllers{
		Interactions: &controllers.InteractionController{
			PublicKey:  key,
			Command:    a.Config.DiscordCmd,
			Location:   loc,
			ProcessARN: a.Config.ProcessStepFunc,
			Invasions:  a.Invasions,
			Members:    a.Members,
			Ladders:    a.Ladders,
			Months:     a.Months,
			Reports:    a.Reports,
			Discord:    discord,
			Workflows:  starter,
			Logger:     a.Logger,
		},
		Invasions: controllers.NewInvasionController(a.Invasions, loc, a.Logger),
		Ladders:   controllers.NewLadderController(a.Ladders, a.Logger),
		Members:   controllers.NewMemberController(a.Members, a.Invasions, a.Ladders, loc, a.Logger),
		Months:    controllers.NewMonthController(a.Months, a.Reports, a.Logger),
	}), nil
}

// MonthReport builds month and publishes its report, returning the summary message.
func (a *App) MonthReport(ctx context.Context, month string) (string, error) {
	m, err := a.Months.Build(ctx, month)
	if err != nil {
		return "", err
	}
	return a.Reports.MonthReport(ctx, m)
}
