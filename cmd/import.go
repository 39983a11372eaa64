package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/clockin/internal/database"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a roster export file",
	Long: `Import employees from a file written by the export command. Employees
whose normalized name already exists are skipped, so re-running an import
is safe.

Example:
  clockin import roster.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var export rosterExport
	if err := json.NewDecoder(f).Decode(&export); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}
	if len(export.Employees) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	repo, pool, err := openRoster()
	if err != nil {
		return err
	}
	defer pool.Close()

	bar := progressbar.NewOptions(len(export.Employees),
		progressbar.OptionSetDescription("Importing roster"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("employees"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	ctx := context.Background()
	imported := 0
	skipped := 0
	failed := 0

	for _, entry := range export.Employees {
		bar.Add(1)

		var template []float32
		if entry.Template != "" {
			raw, err := base64.StdEncoding.DecodeString(entry.Template)
			if err != nil {
				fmt.Printf("\n  %s: invalid template encoding, skipping\n", entry.Name)
				failed++
				continue
			}
			if template, err = database.DecodeTemplate(raw); err != nil {
				fmt.Printf("\n  %s: %v, skipping\n", entry.Name, err)
				failed++
				continue
			}
		}

		role := entry.Role
		if role != database.RoleEmployee && role != database.RoleHR {
			role = database.RoleEmployee
		}

		err := repo.Create(ctx, &database.Employee{
			Name:         entry.Name,
			Designation:  entry.Designation,
			Role:         role,
			PasswordHash: entry.PasswordHash,
			Template:     template,
		})
		switch {
		case errors.Is(err, database.ErrDuplicateName):
			skipped++
		case err != nil:
			fmt.Printf("\n  %s: %v\n", entry.Name, err)
			failed++
		default:
			imported++
		}
	}
	fmt.Println()

	fmt.Println("Import complete!")
	fmt.Printf("  Imported: %d\n", imported)
	fmt.Printf("  Skipped:  %d (already enrolled)\n", skipped)
	if failed > 0 {
		fmt.Printf("  Failed:   %d\n", failed)
	}
	return nil
}
