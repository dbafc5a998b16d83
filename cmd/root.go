package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smart-attendance",
	Short: "Face recognition attendance for classroom sessions",
	Long: `Smart Attendance matches faces from a classroom camera against a
gallery of enrolled students and records attendance for the currently
scheduled session. It ships a web API for enrollment, training and
reporting, plus CLI commands for training and live capture.`,
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
