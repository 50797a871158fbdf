package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/silverlode/fleetpanel/internal/bootstrap"
	"github.com/silverlode/fleetpanel/internal/config"
	"github.com/silverlode/fleetpanel/internal/migrations"
	"github.com/silverlode/fleetpanel/internal/repository/sqlite"
	"github.com/silverlode/fleetpanel/internal/support/logging"
	"github.com/spf13/cobra"
)

// openStore loads config, opens the database and applies pending migrations.
// Callers must close the returned *sql.DB via store.DB().Close().
func openStore() (*config.Config, *sqlite.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := bootstrap.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return cfg, sqlite.NewStore(db), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
}

func init() {
	// Migrate
	var migrateCmd = &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Database migration management",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenSQLite(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			switch action {
			case "up":
				return migrations.Up(db)
			case "down":
				return migrations.Down(db)
			case "status":
				return migrations.Status(db)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
		},
	}
	rootCmd.AddCommand(migrateCmd)

	// Backup
	var backupOutput string
	var backupCompress bool
	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			target := backupOutput
			if target == "" {
				backupDir := "data/backups"
				if err := os.MkdirAll(backupDir, 0755); err != nil {
					return fmt.Errorf("create backup dir: %w", err)
				}
				ext := ".db"
				if backupCompress {
					ext += ".gz"
				}
				filename := fmt.Sprintf("fleetpanel_%s%s", time.Now().Format("20060102_150405"), ext)
				target = filepath.Join(backupDir, filename)
			}

			db, err := bootstrap.OpenSQLite(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			tempFile := target
			if backupCompress {
				if strings.HasSuffix(target, ".gz") {
					tempFile = strings.TrimSuffix(target, ".gz")
				} else {
					tempFile = target + ".tmp"
				}
			}

			if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", tempFile)); err != nil {
				return fmt.Errorf("sqlite vacuum into: %w", err)
			}

			if backupCompress {
				if err := compressFile(tempFile, target); err != nil {
					return err
				}
				if err := os.Remove(tempFile); err != nil {
					return fmt.Errorf("remove temp backup: %w", err)
				}
			}

			fmt.Printf("Backup written to %s\n", target)
			return nil
		},
	}
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "Backup file path")
	backupCmd.Flags().BoolVarP(&backupCompress, "compress", "z", false, "Compress backup with gzip")
	rootCmd.AddCommand(backupCmd)

	// Version
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fleetpanel %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	})
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create compressed backup: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return fmt.Errorf("compress backup: %w", err)
	}
	return gz.Close()
}
