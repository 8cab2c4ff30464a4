package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantica-technologies/kafka-replay/internal/config"
	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/metrics"
)

// app carries the state shared by every subcommand: resolved configuration
// and the session logger.
type app struct {
	cfg *config.Config
	log logger.Logger
}

// NewRootCmd creates the root kafkareplay command.
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		broker     string
		logLevel   string
		logFormat  string
	)

	a := &app{}

	root := &cobra.Command{
		Use:   "kafkareplay",
		Short: "Record Kafka topics and replay them with original timing",
		Long: `kafkareplay captures a live message sequence from a Kafka topic into a
durable recording file, and later replays that sequence to a topic,
preserving or rescaling the original inter-message timing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configFile != "" {
				a.cfg, err = config.LoadFromFile(configFile)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInvalidArgument, "failed to load config")
				}
			} else {
				a.cfg = config.Load()
			}

			if broker != "" {
				a.cfg.Kafka.BootstrapServers = broker
			}
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				a.cfg.LogFormat = logFormat
			}

			a.log = logger.New(logger.Config{
				Level:  a.cfg.LogLevel,
				Format: a.cfg.LogFormat,
			})

			if a.cfg.MetricsAddr != "" {
				go func() {
					if err := metrics.Serve(a.cfg.MetricsAddr); err != nil {
						a.log.Warn("Metrics endpoint failed", "addr", a.cfg.MetricsAddr, "error", err)
					}
				}()
			}

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&broker, "broker", "", "Kafka broker address (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console")

	root.AddCommand(
		newRecordCmd(a),
		newReplayCmd(a),
		newListCmd(a),
		newArchiveCmd(a),
	)

	return root
}

// Execute runs the CLI and maps error codes to exit status: 1 for argument
// errors and missing files, 2 for runtime failures.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Runtime failures are wrapped AppErrors; anything else (flag
		// parsing, missing required flags) is an argument error.
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case errors.ErrCodeInvalidArgument, errors.ErrCodeNotFound:
				os.Exit(1)
			default:
				os.Exit(2)
			}
		}
		os.Exit(1)
	}
}
