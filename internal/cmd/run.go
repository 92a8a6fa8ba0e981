package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/artcraftzone/hierlog/internal/config"
	"github.com/artcraftzone/hierlog/internal/metrics"
	"github.com/artcraftzone/hierlog/pkg/logger"
	"github.com/artcraftzone/hierlog/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log standard input through the configured logger",
	Long: `Read lines from standard input and log each one.

A line starting with a level name and a colon is logged at that level,
anything else at the default level:

  echo "error: disk full" | hierlog run -c hierlog.yaml
  tail -f app.out | hierlog run --level warning --metrics-addr :9090`,
	RunE: runRun,
}

var (
	runLevel       string
	runMetricsAddr string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runLevel, "level", "info", "Level of lines without a level prefix")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
}

func runRun(cmd *cobra.Command, args []string) error {
	defaultLevel, err := types.ParseLevel(runLevel)
	if err != nil || defaultLevel == types.LevelNotSet {
		return errors.Errorf("invalid --level %q", runLevel)
	}

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

	stderr := cmd.ErrOrStderr()
	l, err := logger.New(cfg,
		logger.WithConsoleWriter(stderr),
		logger.WithStatus(logger.NewWriterStatus(cmd.OutOrStdout(), isTerminal(cmd.OutOrStdout()))),
		logger.WithErrorHandler(func(e logger.LogError) {
			fmt.Fprintf(stderr, "hierlog error: %s\n", e.Error())
		}),
	)
	if err != nil {
		return err
	}
	defer l.Close()

	watcher := config.NewWatcher(v, l.Controller(), cfg, func(err error) {
		fmt.Fprintf(stderr, "hierlog: %v\n", err)
	})
	watcher.Start()

	addr := fileCfg.Metrics.Addr
	if runMetricsAddr != "" {
		addr = runMetricsAddr
	}
	if addr != "" {
		shutdown, err := serveMetrics(addr, l)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	return pipe(cmd.InOrStdin(), l, defaultLevel)
}

// pipe logs every line of r until EOF
func pipe(r io.Reader, l *logger.Logger, defaultLevel types.Level) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		level, message := parseLine(line, defaultLevel)
		l.Log(level, message)
	}
	return errors.Wrap(scanner.Err(), "read input")
}

// parseLine splits an optional "LEVEL:" prefix from line
func parseLine(line string, defaultLevel types.Level) (types.Level, string) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return defaultLevel, line
	}
	level, err := types.ParseLevel(line[:i])
	if err != nil || level == types.LevelNotSet {
		return defaultLevel, line
	}
	return level, strings.TrimSpace(line[i+1:])
}

func serveMetrics(addr string, l *logger.Logger) (func(), error) {
	registry, err := metrics.NewRegistry(l.Metrics(), l.Name())
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server stopped", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
