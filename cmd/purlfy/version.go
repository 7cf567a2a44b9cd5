package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.6"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("purlfy v" + version)
	},
}
