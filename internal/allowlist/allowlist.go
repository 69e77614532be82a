package allowlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/ttlcache"
)

// DefaultTTL bounds how long a fetched allowlist is reused before Parameter
// Store is asked again.
const DefaultTTL = time.Minute

type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

var _ SSMAPI = (*ssm.Client)(nil)

// Provider resolves the set of source IPs allowed through the gate. The
// backing parameter holds a comma-separated list; failures surface as
// ErrUnavailable so callers fail closed without treating them as denials.
type Provider struct {
	client SSMAPI
	param  string
	cache  *ttlcache.Value[[]string]
}

func NewProvider(client SSMAPI, param string) *Provider {
	return &Provider{
		client: client,
		param:  param,
		cache:  ttlcache.New[[]string](DefaultTTL),
	}
}

func (p *Provider) AllowedIPs(ctx context.Context) ([]string, error) {
	if p.param == "" {
		return nil, fmt.Errorf("%w: allowed ip parameter name is not configured", appErr.ErrUnavailable)
	}
	if ips, ok := p.cache.Get(); ok {
		return ips, nil
	}
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(p.param)})
	if err != nil {
		logutil.GetLogger(ctx).Error("read allowed ip parameter failed", zap.String("param", p.param), zap.Error(err))
		return nil, fmt.Errorf("%w: read allowed ip parameter: %v", appErr.ErrUnavailable, err)
	}
	var value string
	if out.Parameter != nil && out.Parameter.Value != nil {
		value = *out.Parameter.Value
	}
	if value == "" {
		return nil, fmt.Errorf("%w: allowed ip parameter is empty", appErr.ErrUnavailable)
	}
	ips := splitList(value)
	p.cache.Set(ips)
	return ips, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	ips := make([]string, 0, len(parts))
	for _, part := range parts {
		if ip := strings.TrimSpace(part); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}
