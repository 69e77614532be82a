package auth

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Authorizer is the TOKEN authorizer behind the gateway. The token is the
// raw value of the credential header, not an OAuth bearer token.
type Authorizer struct {
	verifier *Verifier
}

func NewAuthorizer(verifier *Verifier) *Authorizer {
	return &Authorizer{verifier: verifier}
}

// Handle validates the caller and returns an Allow policy carrying the
// username for the backing API. Every failure is returned as an error so the
// gateway answers 401 itself; a Deny policy would be cached against the
// caller instead.
func (a *Authorizer) Handle(ctx context.Context, event events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	username, password, err := DecodeCredentials(event.AuthorizationToken)
	if err != nil {
		logutil.GetLogger(ctx).Info("rejecting malformed authorization token", zap.Error(err))
		return events.APIGatewayCustomAuthorizerResponse{}, ErrUnauthorized
	}
	if err := a.verifier.Verify(ctx, username, password); err != nil {
		return events.APIGatewayCustomAuthorizerResponse{}, err
	}
	logutil.GetLogger(ctx).Info("authorized caller", zap.String("username", username))
	resp := NewPolicy(username, EffectAllow, event.MethodArn)
	resp.Context = map[string]interface{}{"username": username}
	return resp, nil
}
