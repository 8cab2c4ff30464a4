package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantica-technologies/kafka-replay/internal/app/catalog"
	"github.com/quantica-technologies/kafka-replay/internal/infrastructure/storage"
)

func newListCmd(a *app) *cobra.Command {
	var (
		outputDir string
		archived  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available recordings, newest first",
		Example: `  kafkareplay list
  kafkareplay list --output-dir /var/recordings
  kafkareplay list --archived`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewDirRepository(outputDirOrDefault(a, outputDir))
			if archived {
				var err error
				store, err = storage.NewRepository(cmd.Context(), a.cfg.Storage)
				if err != nil {
					return err
				}
			}
			defer store.Close()

			service := catalog.NewService(store, a.cfg.Record.FilePrefix, a.log)
			infos, err := service.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				fmt.Println("No recordings found")
				return nil
			}

			fmt.Printf("%-4s %-52s %-20s %-20s %s\n", "ID", "FILE", "TOPIC", "CREATED", "MESSAGES")
			for _, info := range infos {
				fmt.Printf("%-4d %-52s %-20s %-20s %d\n",
					info.ID,
					info.Filename,
					info.Topic,
					info.CreatedAt.Format(time.DateTime),
					info.MessageCount)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Recording directory to list")
	cmd.Flags().BoolVar(&archived, "archived", false, "List the archive store instead of the local directory")

	return cmd
}

func outputDirOrDefault(a *app, dir string) string {
	if dir != "" {
		return dir
	}
	return a.cfg.Record.OutputDir
}
