package auth

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Error messages are part of the gateway contract: a TOKEN authorizer error
// whose message starts with "Unauthorized" maps to a 401 instead of a 500.
var (
	ErrUnauthorized             = errors.New("Unauthorized")
	ErrAuthorizerConfig         = errors.New("Unauthorized: Authorizer configuration error")
	ErrAuthorizerInternalConfig = errors.New("Unauthorized: Authorizer internal configuration error")
)

type CognitoAPI interface {
	AdminInitiateAuth(ctx context.Context, params *cognitoidentityprovider.AdminInitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminInitiateAuthOutput, error)
}

var _ CognitoAPI = (*cognitoidentityprovider.Client)(nil)

// Verifier checks a username/password pair against a Cognito user pool with
// the admin no-SRP flow.
type Verifier struct {
	client     CognitoAPI
	userPoolID string
	clientID   string
}

func NewVerifier(client CognitoAPI, userPoolID, clientID string) *Verifier {
	return &Verifier{client: client, userPoolID: userPoolID, clientID: clientID}
}

func (v *Verifier) Verify(ctx context.Context, username, password string) error {
	if v.userPoolID == "" || v.clientID == "" {
		return ErrAuthorizerConfig
	}
	if v.client == nil {
		return ErrAuthorizerInternalConfig
	}
	if username == "" || password == "" {
		return ErrUnauthorized
	}
	out, err := v.client.AdminInitiateAuth(ctx, &cognitoidentityprovider.AdminInitiateAuthInput{
		AuthFlow:   cognitotypes.AuthFlowTypeAdminNoSrpAuth,
		UserPoolId: aws.String(v.userPoolID),
		ClientId:   aws.String(v.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		logutil.GetLogger(ctx).Info("cognito rejected credentials", zap.String("username", username), zap.Error(err))
		return ErrUnauthorized
	}
	// A pending challenge means the password alone did not complete the
	// flow, so the caller is not authenticated yet.
	if out.ChallengeName != "" || out.AuthenticationResult == nil {
		return ErrUnauthorized
	}
	return nil
}
