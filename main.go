package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spigell/job-hunter/cmd"
)

func main() {
	// A missing .env file is fine, the real environment still applies.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
