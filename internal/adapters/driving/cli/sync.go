package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise documents and rebuild the index",
	Long: `Mirrors the remote document set locally and rebuilds the
passage index when anything changed. With --force the index is rebuilt
even when no change was detected.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "rebuild even without detected changes")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cmd.Println("Synchronising documents...")

	if err := index.Refresh(context.Background(), syncForce); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Println("Documents synchronised.")
	return nil
}
