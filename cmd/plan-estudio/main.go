package main

import (
	"os"

	// Load GEMINI_API_KEY and friends from a local .env file when present.
	_ "github.com/joho/godotenv/autoload"

	"github.com/j840425/plan-estudio/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
