package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantica-technologies/kafka-replay/internal/app/archive"
	"github.com/quantica-technologies/kafka-replay/internal/infrastructure/storage"
)

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Move recordings between the local directory and the archive store",
	}

	cmd.AddCommand(newArchivePushCmd(a), newArchiveFetchCmd(a), newArchiveDeleteCmd(a))
	return cmd
}

func newArchivePushCmd(a *app) *cobra.Command {
	var (
		inputFile string
		compress  bool
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload a recording to the archive store",
		Example: `  kafkareplay archive push --input-file kafka_recording_orders_20240101_120000.jsonl
  kafkareplay archive push --input-file rec.jsonl --compress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewRepository(cmd.Context(), a.cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			service := archive.NewService(store, a.log)
			key, err := service.Push(cmd.Context(), inputFile, compress)
			if err != nil {
				return err
			}

			fmt.Printf("Archived %s as %s\n", inputFile, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "input-file", "", "Recording file to archive (required)")
	cmd.Flags().BoolVar(&compress, "compress", false, "Gzip-compress the archived copy")
	cmd.MarkFlagRequired("input-file")

	return cmd
}

func newArchiveFetchCmd(a *app) *cobra.Command {
	var (
		name    string
		destDir string
	)

	cmd := &cobra.Command{
		Use:     "fetch",
		Short:   "Download an archived recording for replay",
		Example: `  kafkareplay archive fetch --name kafka_recording_orders_20240101_120000.jsonl.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewRepository(cmd.Context(), a.cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			dest := destDir
			if dest == "" {
				dest = a.cfg.Record.OutputDir
			}

			service := archive.NewService(store, a.log)
			path, err := service.Fetch(cmd.Context(), name, dest)
			if err != nil {
				return err
			}

			fmt.Printf("Fetched %s to %s\n", name, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Archive key to fetch (required)")
	cmd.Flags().StringVar(&destDir, "dest-dir", "", "Destination directory")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newArchiveDeleteCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Remove a recording from the archive store",
		Example: `  kafkareplay archive delete --name kafka_recording_orders_20240101_120000.jsonl.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewRepository(cmd.Context(), a.cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			service := archive.NewService(store, a.log)
			if err := service.Delete(cmd.Context(), name); err != nil {
				return err
			}

			fmt.Printf("Deleted %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Archive key to delete (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}
