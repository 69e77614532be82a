package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/auth"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logutil.GetLogger(context.Background()).Fatal("load config", zap.Error(err))
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)

	ctx := context.Background()
	awsCfg, err := config.NewAWSConfig(ctx, cfg)
	if err != nil {
		logutil.GetLogger(ctx).Fatal("load aws config", zap.Error(err))
	}

	verifier := auth.NewVerifier(
		cognitoidentityprovider.NewFromConfig(awsCfg),
		cfg.UserPoolID,
		cfg.UserPoolClientID,
	)
	logutil.GetLogger(ctx).Info("starting token authorizer", zap.String("user_pool", cfg.UserPoolID))
	lambda.Start(auth.NewAuthorizer(verifier).Handle)
}
