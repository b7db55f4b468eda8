package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/auto-codex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the auto-codex version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
