package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/storage"
	"github.com/gravadigital/smartpolls/internal/storage/database"
	"github.com/gravadigital/smartpolls/internal/storage/migrations"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List applied migrations")
	driver := flag.String("driver", cfg.Server.StorageType, "Database driver: sqlite or postgres (env STORAGE_TYPE)")
	flag.Parse()

	if *driver == string(storage.StorageTypeMemory) {
		log.Error("The memory storage has no schema; use -driver sqlite or -driver postgres")
		os.Exit(1)
	}

	log.Info("Starting migration process", "driver", *driver, "rollback", *rollback)

	db, err := database.Connect(cfg, *driver)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	switch {
	case *status:
		applied, err := migrations.Applied(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		for _, m := range applied {
			fmt.Printf("%s  %-24s  %s\n", m.ID, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%d of %d migrations applied\n", len(applied), len(migrations.GetMigrations()))
		return
	case *rollback:
		log.Info("Rolling back migrations...")
		if err := migrations.RollbackMigration(db); err != nil {
			if errors.Is(err, migrations.ErrNothingToRollback) {
				log.Warn("Nothing to roll back")
				return
			}
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migration rollback completed successfully")
	default:
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations completed successfully")
	}

	fmt.Println("Migration process completed!")
}
