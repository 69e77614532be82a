package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/config"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filestore"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/repo"
)

type env struct {
	cfg    *config.Config
	files  *filestore.Store
	assets *repo.AssetRepo
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	awsCfg, err := config.NewAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return &env{
		cfg: cfg,
		files: filestore.New(
			s3Client,
			s3.NewPresignClient(s3Client),
			cfg.S3Bucket,
			time.Duration(cfg.PresignTTLSeconds)*time.Second,
		),
		assets: repo.NewAssetRepo(repo.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)),
	}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "cckctl",
		Short:        "Cartographers Cloud Kit operations tool",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		newUploadCmd(),
		newDownloadCmd(),
		newCatCmd(),
		newLsCmd(),
		newExportCmd(),
		newImportCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newUploadCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "upload <local-file>",
		Short: "upload a local file to the asset bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			if key == "" {
				key = filepath.Base(args[0])
			}
			if err := e.files.UploadFile(ctx, key, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to s3://%s/%s\n", args[0], e.cfg.S3Bucket, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "object key, defaults to the file name")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <key>",
		Short: "download an object from the asset bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			if out == "" {
				out = path.Base(args[0])
			}
			if err := e.files.GetFile(ctx, args[0], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded s3://%s/%s to %s\n", e.cfg.S3Bucket, args[0], out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "local path, defaults to the key's base name")
	return cmd
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <key>",
		Short: "print an object from the asset bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			content, err := e.files.GetObjectContent(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
}

func newLsCmd() *cobra.Command {
	var limit int32
	cmd := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "list object keys in the asset bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := e.files.ListObjects(ctx, prefix, limit)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
	cmd.Flags().Int32Var(&limit, "limit", 0, "maximum keys to list, 0 for the service default")
	return cmd
}

// Export writes one metadata record per line so dumps can be diffed,
// filtered with standard tools, and fed back through import.
func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "dump all asset metadata as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			assets, err := e.assets.ScanAll(ctx)
			if err != nil {
				return err
			}
			var writer io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}
			enc := json.NewEncoder(writer)
			for i := range assets {
				if err := enc.Encode(&assets[i]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d assets\n", len(assets))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output path, defaults to stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "load asset metadata from a JSON lines dump",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			var reader io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				reader = file
			}
			assets, err := decodeAssets(reader)
			if err != nil {
				return err
			}
			if len(assets) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing to import")
				return nil
			}
			if err := e.assets.BatchPut(ctx, assets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d assets\n", len(assets))
			return nil
		},
	}
}

func decodeAssets(reader io.Reader) ([]model.Asset, error) {
	var assets []model.Asset
	dec := json.NewDecoder(reader)
	for {
		var asset model.Asset
		if err := dec.Decode(&asset); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parse record %d: %w", len(assets)+1, err)
		}
		if asset.OwnerID == "" || asset.AssetID == "" {
			return nil, fmt.Errorf("record %d is missing owner_id or asset_id", len(assets)+1)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
