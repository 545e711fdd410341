package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/careline-io/careline/pkg/careline"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	careline.SetupLogger()

	if len(os.Args) > 1 && os.Args[1] == "create-api-key" {
		if len(os.Args) != 4 {
			fmt.Fprintln(os.Stderr, "usage: careline create-api-key <tenant-id> <key-name>")
			os.Exit(2)
		}
		repo, closeDB := careline.NewAPIKeyRepositoryFromSettings()
		defer closeDB()
		key, err := repo.Create(os.Args[2], os.Args[3])
		if err != nil {
			slog.Error("Failed to create api key", "error", err)
			os.Exit(1)
		}
		// printed once, only the prefix and a hash are stored
		fmt.Println(key)
		return
	}

	if err := careline.Start(nil); err != nil {
		slog.Error("Engine exited with error", "error", err)
	}
}
