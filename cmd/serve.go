package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/clockin/internal/config"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/database/postgres"
	"github.com/kozaktomas/clockin/internal/faceapi"
	"github.com/kozaktomas/clockin/internal/storage"
	"github.com/kozaktomas/clockin/internal/verify"
	"github.com/kozaktomas/clockin/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Clockin API server.
The server exposes login, liveness challenges, attendance marking and the
HR roster endpoints. It needs PostgreSQL and the face extractor sidecar.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies and challenge tokens")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

// buildFaceIndex loads every enrolled template into the in-memory HNSW index
// used for 1:N identification.
func buildFaceIndex(ctx context.Context, employees *postgres.EmployeeRepository) (*database.HNSWIndex, error) {
	roster, err := employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	index := database.NewHNSWIndex()
	index.BuildFromEmployees(roster)
	fmt.Printf("Face index built with %d of %d employees enrolled\n", index.Count(), len(roster))
	return index, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	employeeRepo := postgres.NewEmployeeRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	fmt.Printf("Session persistence enabled (PostgreSQL)\n")

	blobs, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	extractor := faceapi.NewClient(cfg.FaceAPI.URL)

	index, err := buildFaceIndex(context.Background(), employeeRepo)
	if err != nil {
		return err
	}

	port, host, sessionSecret := resolveServeHostPort(cmd)

	pipeline := verify.NewPipeline(cfg.Office, cfg.Verify, extractor,
		database.NewRecordStore(attendanceRepo), blobs)
	challenges := verify.NewChallengeManager(sessionSecret,
		time.Duration(cfg.Verify.ChallengeTTLSeconds)*time.Second)

	server := web.NewServer(cfg, port, host, sessionSecret, web.Deps{
		Pipeline:   pipeline,
		Challenges: challenges,
		Extractor:  extractor,
		Employees:  employeeRepo,
		Attendance: attendanceRepo,
		Index:      index,
		Blobs:      blobs,
		Sessions:   sessionRepo,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Clockin API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
