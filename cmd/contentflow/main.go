package main

import (
	"fmt"
	"os"

	"github.com/atimaspi/fcbb-1-1-59/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "contentflow"}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
