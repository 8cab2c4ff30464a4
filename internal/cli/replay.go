package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantica-technologies/kafka-replay/internal/app/replay"
	kafkainfra "github.com/quantica-technologies/kafka-replay/internal/infrastructure/kafka"
	"github.com/quantica-technologies/kafka-replay/pkg/clock"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		topic     string
		inputFile string
		rate      float64
		startFrom int64
		count     int64
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recording to a Kafka topic",
		Long: `Reads a recording file and produces its messages back to Kafka,
reproducing the recorded inter-message gaps scaled by --rate.

Rate > 1.0 compresses time, rate < 1.0 stretches it. Without --topic each
message returns to the topic recorded in its own entry.`,
		Example: `  kafkareplay replay --input-file kafka_recording_orders_20240101_120000.jsonl
  kafkareplay replay --input-file rec.jsonl --rate 2.0
  kafkareplay replay --input-file rec.jsonl --topic staging-orders --start-from 100 --count 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				a.log.Info("Received shutdown signal")
				cancel()
			}()

			opts := replay.Options{
				InputFile:    inputFile,
				TargetTopic:  topic,
				Rate:         rate,
				StartFrom:    startFrom,
				Count:        count,
				MaxRetries:   a.cfg.Replay.MaxRetries,
				RetryBackoff: a.cfg.Replay.RetryBackoff,
			}
			if !cmd.Flags().Changed("rate") {
				opts.Rate = a.cfg.Replay.Rate
			}

			service := replay.NewService(kafkainfra.NewRepository(), clock.NewRealClock(), a.log)
			report, err := service.Replay(ctx, a.cfg.ToCluster(), opts)

			if report != nil {
				fmt.Printf("\nReplay summary\n")
				fmt.Printf("  session: %s\n", report.SessionID)
				fmt.Printf("  file:    %s\n", report.File)
				fmt.Printf("  sent:    %d\n", report.Sent)
				fmt.Printf("  skipped: %d\n", report.Skipped())
				if report.Skipped() > 0 {
					fmt.Printf("  skipped sequences: %v\n", report.SkippedSequences)
				}
				fmt.Printf("  retried: %d\n", report.Retried)
				fmt.Printf("  elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
				fmt.Printf("  stopped: %s\n", report.Reason)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Override target topic (default: topic from each entry)")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Recording file to replay (required)")
	cmd.Flags().Float64Var(&rate, "rate", 1.0, "Rate multiplier: 2.0 = twice as fast, 0.5 = half speed")
	cmd.Flags().Int64Var(&startFrom, "start-from", 0, "First sequence number to replay")
	cmd.Flags().Int64Var(&count, "count", 0, "Number of messages to replay (0 = rest of file)")
	cmd.MarkFlagRequired("input-file")

	return cmd
}
