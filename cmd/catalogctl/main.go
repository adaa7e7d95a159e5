// Command catalogctl ingests spreadsheets into the catalog from the shell.
package main

import (
	"os"

	"github.com/JoeyNPP/Furniture-Site/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
