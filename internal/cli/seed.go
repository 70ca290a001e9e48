package cli

import (
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/seed"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Creates the demo clinic when the database has none",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		svc := seed.NewService(
			postgres.NewUnitOfWorkFactory(db, appLog, appMet),
			postgres.NewClinicDirectory(db),
			security.NewBcryptHasher(0),
			appLog,
		)
		seeded, err := svc.Seed(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("seeded: %t\n", seeded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
