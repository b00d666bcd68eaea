package main

import (
	"fmt"
	"os"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Ошибку bind уже показала консоль
		if !domainerrors.IsStartupError(err) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
