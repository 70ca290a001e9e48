package cli

import (
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Hard-deletes rows soft-deleted before the retention window, once",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		purged, err := newRetentionWorker(db).RunOnce(cmd.Context())
		cmd.Printf("purged %d rows\n", purged)
		return err
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
