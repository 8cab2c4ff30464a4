package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantica-technologies/kafka-replay/internal/app/record"
	kafkainfra "github.com/quantica-technologies/kafka-replay/internal/infrastructure/kafka"
	"github.com/quantica-technologies/kafka-replay/pkg/clock"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		topic       string
		groupID     string
		outputDir   string
		maxMessages int64
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record messages from a Kafka topic to a file",
		Long: `Consumes a topic as a member of a consumer group and appends every
delivered message to a recording file, one JSON entry per line.

Recording stops when --max-messages is reached, --timeout elapses, or on
Ctrl+C. The file written so far is always a valid recording.`,
		Example: `  kafkareplay record --topic orders
  kafkareplay record --topic orders --max-messages 1000 --timeout 5m
  kafkareplay record --broker kafka:9092 --topic orders --group-id audit`,
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

			opts := record.Options{
				Topic:       topic,
				GroupID:     groupID,
				OutputDir:   outputDir,
				FilePrefix:  a.cfg.Record.FilePrefix,
				MaxMessages: maxMessages,
				Timeout:     timeout,
			}
			if opts.GroupID == "" {
				opts.GroupID = a.cfg.Kafka.GroupID
			}
			if opts.OutputDir == "" {
				opts.OutputDir = a.cfg.Record.OutputDir
			}
			if !cmd.Flags().Changed("max-messages") {
				opts.MaxMessages = a.cfg.Record.MaxMessages
			}
			if !cmd.Flags().Changed("timeout") {
				opts.Timeout = a.cfg.Record.Timeout
			}

			service := record.NewService(kafkainfra.NewRepository(), clock.NewRealClock(), a.log)
			report, err := service.Record(ctx, a.cfg.ToCluster(), opts)

			if report != nil {
				fmt.Printf("\nRecording summary\n")
				fmt.Printf("  session:  %s\n", report.SessionID)
				fmt.Printf("  topic:    %s\n", report.Topic)
				fmt.Printf("  file:     %s\n", report.File)
				fmt.Printf("  messages: %d\n", report.Messages)
				fmt.Printf("  elapsed:  %s\n", report.Elapsed.Round(time.Millisecond))
				fmt.Printf("  stopped:  %s\n", report.Reason)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Kafka topic to record (required)")
	cmd.Flags().StringVar(&groupID, "group-id", "", "Consumer group ID")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for recording files")
	cmd.Flags().Int64Var(&maxMessages, "max-messages", 0, "Maximum messages to record (0 = unlimited)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Recording duration limit (0 = unlimited)")
	cmd.MarkFlagRequired("topic")

	return cmd
}
