package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var digestDate string

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Emails the daily income digest for one day, once",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC().AddDate(0, 0, -1)
		if digestDate != "" {
			parsed, err := time.Parse(time.DateOnly, digestDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", digestDate, err)
			}
			day = parsed
		}

		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		sent, err := newDigestWorker(db).RunOnce(cmd.Context(), day)
		cmd.Printf("sent %d digests for %s\n", sent, day.Format(time.DateOnly))
		return err
	},
}

func init() {
	digestCmd.Flags().StringVar(&digestDate, "date", "", "day to report, YYYY-MM-DD (default yesterday, UTC)")
	rootCmd.AddCommand(digestCmd)
}
