package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kozaktomas/clockin/internal/auth"
	"github.com/kozaktomas/clockin/internal/config"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/database/postgres"
	"github.com/kozaktomas/clockin/internal/faceapi"
	"github.com/kozaktomas/clockin/internal/storage"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [name]",
	Short: "Enroll an employee from a photo",
	Long: `Enroll a new employee with a face template extracted from a photo.
The photo must contain exactly one face. The extracted template is what
attendance captures are matched against, so use a clear frontal shot.

Examples:
  clockin enroll "Priya Raman" --photo priya.jpg --designation Engineer
  clockin enroll "Anna Kovar" --photo anna.jpg --role hr`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("photo", "", "Path to the enrollment photo (required)")
	enrollCmd.Flags().String("designation", "", "Job title")
	enrollCmd.Flags().String("role", database.RoleEmployee, "Role: employee or hr")
	enrollCmd.Flags().String("password", "", "Login password (prompted when omitted)")
	enrollCmd.MarkFlagRequired("photo")
}

// promptPassword reads a password without echo, falling back to an error
// when stdin is not a terminal.
func promptPassword() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("no terminal to prompt on, pass --password")
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(raw), nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := args[0]
	photoPath := mustGetString(cmd, "photo")
	role := mustGetString(cmd, "role")
	password := mustGetString(cmd, "password")

	if role != database.RoleEmployee && role != database.RoleHR {
		return fmt.Errorf("role must be %q or %q", database.RoleEmployee, database.RoleHR)
	}

	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	photo, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()

	fmt.Println("Extracting face template...")
	faces, err := faceapi.NewClient(cfg.FaceAPI.URL).DetectAndEncode(ctx, photo)
	if err != nil {
		return fmt.Errorf("face extraction: %w", err)
	}
	if len(faces) == 0 {
		return errors.New("no face detected in the photo")
	}
	if len(faces) > 1 {
		return fmt.Errorf("%d faces detected, the enrollment photo must contain exactly one", len(faces))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	photoRef, err := blobs.Save(ctx, photo)
	if err != nil {
		return fmt.Errorf("store enrollment photo: %w", err)
	}

	emp := &database.Employee{
		Name:         name,
		Designation:  mustGetString(cmd, "designation"),
		Role:         role,
		PasswordHash: hash,
		Template:     faces[0].Embedding,
		PhotoRef:     photoRef,
	}
	if err := postgres.NewEmployeeRepository(pool).Create(ctx, emp); err != nil {
		if errors.Is(err, database.ErrDuplicateName) {
			return fmt.Errorf("an employee named %q is already enrolled", name)
		}
		return fmt.Errorf("create employee: %w", err)
	}

	fmt.Printf("Enrolled %s (ID %d)\n", emp.Name, emp.ID)
	fmt.Printf("  Login name: %s\n", database.NormalizeEmployeeName(emp.Name))
	fmt.Printf("  Role:       %s\n", emp.Role)
	fmt.Printf("  Template:   %d dimensions\n", len(emp.Template))
	return nil
}
