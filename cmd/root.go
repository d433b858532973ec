package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "graphql-stitcher",
	Short: "GraphQL schema stitching and request splitting server",
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			log.Fatalf("Error calling help command: %s", err.Error())
		}
	},
}

// release is the git commit the binary was built from, reported with tracked errors.
var release string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(gitCommit string) {
	release = gitCommit
	rootCmd.Version = gitCommit
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing root command: %s", err.Error())
	}
}

func init() {
	log.DefaultLogger = log.New()

	rootCmd.AddCommand((&serveCmd{}).Command())
	rootCmd.AddCommand((&splitCmd{}).Command())
	rootCmd.AddCommand((&migrateCmd{}).Command())
}
