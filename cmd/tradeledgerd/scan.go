package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trade-ledger-backend/internal/ingest"
	"trade-ledger-backend/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan [journal files...]",
	Short: "Ingest the journal directory once, or only the given files, and exit",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gormDB, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := ingest.NewService(cfg, store.NewGormStore(gormDB), nil)

	var sum *ingest.Summary
	if len(args) > 0 {
		sum, err = svc.ProcessFiles(ctx, args)
	} else {
		sum, err = svc.ScanOnce(ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
