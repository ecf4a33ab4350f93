// Package main provides the entry point for the docstamp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docstamp",
	Short: "Document summarization and stamping pipeline",
	Long:  "docstamp extracts text from office documents, summarizes it with Gemini, renders the summary as a QR code, converts the document to PDF, and stamps the code onto every page.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
