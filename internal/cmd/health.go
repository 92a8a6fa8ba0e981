package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/artcraftzone/hierlog/internal/config"
	"github.com/artcraftzone/hierlog/pkg/logger"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the remote ingestion service",
	Long: `Send a health request to the configured remote ingestion service and
print the server version and the actions it offers.`,
	RunE: runHealth,
}

var healthTimeout time.Duration

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "Probe timeout")
}

func runHealth(cmd *cobra.Command, args []string) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	fileCfg, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg, err := fileCfg.ToLogger()
	if err != nil {
		return err
	}
	cfg.Active = false
	cfg.Remote.Enabled = false

	l, err := logger.New(cfg, logger.WithErrorHandler(logger.SilentErrorHandler))
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	status, err := l.Health(ctx)
	if err != nil {
		return errors.Wrap(err, "remote connection test failed")
	}
	if !status.OK {
		return errors.Errorf("remote health check failed: %s", status.Reason())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Remote connection successful (version %s, %d actions available)\n",
		status.Version, len(status.Actions))
	if len(status.Actions) > 0 {
		fmt.Fprintf(out, "Actions: %s\n", strings.Join(status.Actions, ", "))
	}
	return nil
}
