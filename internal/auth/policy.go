package auth

import (
	"github.com/aws/aws-lambda-go/events"
)

const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

// NewPolicy builds the IAM policy document the gateway caches per caller.
func NewPolicy(principalID, effect, resource string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		},
	}
}
