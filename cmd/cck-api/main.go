package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/allowlist"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/config"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filestore"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/handler"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/repo"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cck-api",
		Short:        "Cartographers Cloud Kit asset API",
		SilenceUsage: true,
		RunE:         run,
	}

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// run is the entrypoint for both deployments: on Lambda the runtime invokes
// the bare binary, locally the same binary serves plain HTTP.
func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
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
		return fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	files := filestore.New(
		s3Client,
		s3.NewPresignClient(s3Client),
		cfg.S3Bucket,
		time.Duration(cfg.PresignTTLSeconds)*time.Second,
	)
	assets := repo.NewAssetRepo(repo.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable))
	ips := allowlist.NewProvider(ssm.NewFromConfig(awsCfg), cfg.AllowedIPParam)

	deps := handler.RouterDeps{
		Assets:      handler.NewAssetHandler(service.NewAssetService(assets, files)),
		Allowlist:   ips,
		APIPrefix:   cfg.APIPrefix,
		AuthHeader:  cfg.AuthHeader,
		CORSOrigins: cfg.CORSOrigins,
	}

	if onLambda() {
		logutil.GetLogger(ctx).Info(
			"starting lambda proxy",
			zap.String("prefix", cfg.APIPrefix),
			zap.String("table", cfg.DynamoTable),
			zap.String("bucket", cfg.S3Bucket),
		)
		lambda.Start(ginadapter.New(handler.NewRouter(deps)).ProxyWithContext)
		return nil
	}

	// Local runs compress responses themselves; on Lambda the gateway
	// handles that.
	deps.Middlewares = []gin.HandlerFunc{gzip.Gzip(gzip.DefaultCompression)}
	return runServer(ctx, cfg, handler.NewRouter(deps))
}

func onLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func runServer(ctx context.Context, cfg *config.Config, router *gin.Engine) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: router}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
