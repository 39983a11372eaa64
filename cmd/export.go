package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/clockin/internal/database"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the roster with face templates to a file",
	Long: `Export every employee, including the password hash and the encoded face
template, to a JSON file. The file restores a roster on a fresh instance
via the import command.

Example:
  clockin export roster.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

// exportedEmployee is one roster entry in the export file. The template is
// the versioned binary encoding, base64 wrapped for JSON.
type exportedEmployee struct {
	Name         string `json:"name"`
	Designation  string `json:"designation,omitempty"`
	Role         string `json:"role"`
	PasswordHash string `json:"password_hash"`
	Template     string `json:"template,omitempty"`
}

type rosterExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Employees  []exportedEmployee `json:"employees"`
}

func runExport(cmd *cobra.Command, args []string) error {
	outPath := args[0]

	repo, pool, err := openRoster()
	if err != nil {
		return err
	}
	defer pool.Close()

	employees, err := repo.List(context.Background())
	if err != nil {
		return fmt.Errorf("list employees: %w", err)
	}

	bar := progressbar.NewOptions(len(employees),
		progressbar.OptionSetDescription("Exporting roster"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("employees"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	export := rosterExport{
		ExportedAt: time.Now().UTC(),
		Employees:  make([]exportedEmployee, 0, len(employees)),
	}
	for i := range employees {
		emp := &employees[i]
		entry := exportedEmployee{
			Name:         emp.Name,
			Designation:  emp.Designation,
			Role:         emp.Role,
			PasswordHash: emp.PasswordHash,
		}
		if len(emp.Template) > 0 {
			entry.Template = base64.StdEncoding.EncodeToString(database.EncodeTemplate(emp.Template))
		}
		export.Employees = append(export.Employees, entry)
		bar.Add(1)
	}
	fmt.Println()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	fmt.Printf("Exported %d employees to %s\n", len(export.Employees), outPath)
	return nil
}
