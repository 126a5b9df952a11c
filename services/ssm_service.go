package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
)

// SSMAPI is the part of the SSM client used for bot settings.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMService reads and writes parameter store values.
type SSMService struct {
	Client SSMAPI
}

func NewSSMService(client SSMAPI) *SSMService {
	return &SSMService{Client: client}
}

// GetParameter returns the decrypted value, or ErrItemNotFound when unset.
func (s *SSMService) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := s.Client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if isParameterNotFound(err) {
			return "", fmt.Errorf("%w: parameter %s", ErrItemNotFound, name)
		}
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// PutParameter writes a value, overwriting any existing one.
func (s *SSMService) PutParameter(ctx context.Context, name, value, description string, secure bool) error {
	kind := types.ParameterTypeString
	if secure {
		kind = types.ParameterTypeSecureString
	}
	_, err := s.Client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Description: aws.String(description),
		Type:        kind,
		Overwrite:   aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", name, err)
	}
	return nil
}

func isParameterNotFound(err error) bool {
	var nf *types.ParameterNotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ParameterNotFound"
}
