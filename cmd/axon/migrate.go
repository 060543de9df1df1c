package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/contextstore"
)

func migrateCMD() *cobra.Command {
	var migDir string
	var migDirDefault = "file://migrations"
	var direction string
	var steps int
	var cfgPath string

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run context store database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			pg := cfg.Context.Postgres
			dsn := pg.URL
			if dsn == "" {
				if pg.Host == "" || pg.DBName == "" {
					return fmt.Errorf("postgres not configured (context.postgres.host/dbname or url)")
				}
				port := pg.Port
				if port == "" {
					port = "5432"
				}
				ssl := pg.SSLMode
				if ssl == "" {
					ssl = "disable"
				}
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", pg.User, pg.Password, pg.Host, port, pg.DBName, ssl)
			}
			if migDir == "" {
				migDir = migDirDefault
			}
			return contextstore.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", migDirDefault, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	migrate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return migrate
}
