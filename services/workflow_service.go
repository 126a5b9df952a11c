package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowStarter starts a workflow with a JSON input.
type WorkflowStarter interface {
	Start(ctx context.Context, arn string, input interface{}) error
}

// SFNAPI is the part of the Step Functions client used to start executions.
type SFNAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// SFNStarter starts Step Functions executions.
type SFNStarter struct {
	Client SFNAPI
	Logger *zap.Logger
}

func NewSFNStarter(client SFNAPI, log *zap.Logger) *SFNStarter {
	return &SFNStarter{Client: client, Logger: log}
}

func (s *SFNStarter) Start(ctx context.Context, arn string, input interface{}) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode workflow input: %w", err)
	}
	name := uuid.NewString()
	out, err := s.Client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(arn),
		Input:           aws.String(string(payload)),
		Name:            aws.String(name),
	})
	if err != nil {
		return err
	}
	s.Logger.Info("started execution", zap.String("arn", arn), zap.String("execution", aws.ToString(out.ExecutionArn)))
	return nil
}
