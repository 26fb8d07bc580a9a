package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/gc"
	"github.com/marmos91/dittosync/pkg/listfile"
	"github.com/marmos91/dittosync/pkg/storage/cas"
	"github.com/spf13/cobra"
)

func newCASCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cas",
		Short: "Manage clip archives",
	}

	var (
		dbPath  string
		list    string
		dataDir string
	)
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Archive the files of a list file as clips",
		Long: `Stores one clip per list file row. The clip id is the first field of the
row and its payload is the file at <data-dir>/<relative path>. Directory and
symlink rows are stored without a payload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			archive, err := cas.Open(cmd.Context(), cas.Config{DBPath: dbPath})
			if err != nil {
				return err
			}
			defer func() {
				if err := archive.Close(); err != nil {
					logger.Error("Failed to close archive: %v", err)
				}
			}()

			reader, err := listfile.Open(list)
			if err != nil {
				return err
			}
			defer reader.Close()

			stats, err := archive.Import(cmd.Context(), reader, func(relativePath string) ([]byte, error) {
				return os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(relativePath)))
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "clips: %d (directories: %d, symlinks: %d)\n",
				stats.Clips, stats.Directories, stats.Links)
			return nil
		},
	}
	importCmd.Flags().StringVar(&dbPath, "db", "", "archive directory")
	importCmd.Flags().StringVar(&list, "list", "", "list file describing the files")
	importCmd.Flags().StringVar(&dataDir, "data-dir", ".", "directory the relative paths are resolved against")
	_ = importCmd.MarkFlagRequired("db")
	_ = importCmd.MarkFlagRequired("list")

	cmd.AddCommand(importCmd, newCASGCCmd())
	return cmd
}

func newCASGCCmd() *cobra.Command {
	var (
		dbPath    string
		batchSize int
		dryRun    bool
	)
	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete blobs no clip references",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			archive, err := cas.Open(cmd.Context(), cas.Config{DBPath: dbPath})
			if err != nil {
				return err
			}
			defer func() {
				if err := archive.Close(); err != nil {
					logger.Error("Failed to close archive: %v", err)
				}
			}()

			collector, err := gc.NewCollector(archive, gc.Config{BatchSize: batchSize, DryRun: dryRun})
			if err != nil {
				return err
			}

			stats, err := collector.RunNow(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "orphaned: %d\ndeleted: %d\nfailed: %d\n",
				stats.OrphanedCount, stats.DeletedCount, stats.FailedCount)
			if stats.FailedCount > 0 {
				return fmt.Errorf("%d blobs could not be deleted", stats.FailedCount)
			}
			return nil
		},
	}
	gcCmd.Flags().StringVar(&dbPath, "db", "", "archive directory")
	gcCmd.Flags().IntVar(&batchSize, "batch-size", 1000, "blobs deleted per transaction")
	gcCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphaned blobs without deleting them")
	_ = gcCmd.MarkFlagRequired("db")

	return gcCmd
}
