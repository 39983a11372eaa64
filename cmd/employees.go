package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/clockin/internal/config"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/database/postgres"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage the employee roster",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled employees",
	RunE:  runEmployeesList,
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove an employee",
	Long: `Remove an employee from the roster. Their attendance records are kept;
only the profile, face template and login go away.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmployeesDelete,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesListCmd)
	employeesCmd.AddCommand(employeesDeleteCmd)

	employeesListCmd.Flags().Bool("json", false, "Output as JSON")
}

// openRoster connects to PostgreSQL and returns the employee repository.
func openRoster() (*postgres.EmployeeRepository, *postgres.Pool, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return postgres.NewEmployeeRepository(pool), pool, nil
}

// EmployeeListItem is one row of the employees list output
type EmployeeListItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LoginName string `json:"login_name"`
	Role      string `json:"role"`
	Enrolled  bool   `json:"enrolled"`
	CreatedAt string `json:"created_at"`
}

func runEmployeesList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	repo, pool, err := openRoster()
	if err != nil {
		return err
	}
	defer pool.Close()

	employees, err := repo.List(context.Background())
	if err != nil {
		return fmt.Errorf("list employees: %w", err)
	}

	if jsonOutput {
		items := make([]EmployeeListItem, 0, len(employees))
		for i := range employees {
			emp := &employees[i]
			items = append(items, EmployeeListItem{
				ID:        emp.ID,
				Name:      emp.Name,
				LoginName: database.NormalizeEmployeeName(emp.Name),
				Role:      emp.Role,
				Enrolled:  len(emp.Template) > 0,
				CreatedAt: emp.CreatedAt.Format(time.RFC3339),
			})
		}
		return outputJSON(items)
	}

	if len(employees) == 0 {
		fmt.Println("No employees enrolled.")
		return nil
	}

	fmt.Printf("%-5s %-25s %-25s %-8s %s\n", "ID", "NAME", "LOGIN", "ROLE", "ENROLLED")
	for i := range employees {
		emp := &employees[i]
		enrolled := "no"
		if len(emp.Template) > 0 {
			enrolled = "yes"
		}
		fmt.Printf("%-5d %-25s %-25s %-8s %s\n",
			emp.ID, emp.Name, database.NormalizeEmployeeName(emp.Name), emp.Role, enrolled)
	}
	fmt.Printf("\n%d employees\n", len(employees))
	return nil
}

func runEmployeesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid employee ID %q", args[0])
	}

	repo, pool, err := openRoster()
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	emp, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("employee %d not found", id)
		}
		return fmt.Errorf("load employee: %w", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	fmt.Printf("Deleted %s (ID %d)\n", emp.Name, emp.ID)
	return nil
}
