package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clockin",
	Short: "Face-verified attendance for a geofenced office",
	Long: `Clockin records employee attendance from selfie captures. Every mark is
verified before it lands: the employee must be inside the office geofence,
pass a randomized liveness challenge, and match the face template enrolled
for them. One mark per employee per calendar day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
