package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var opts cliOptions

var rootCmd = &cobra.Command{
	Use:   "purlfy [flags] <url>...",
	Short: "pURLfy - purify URLs with rule sets",
	Long: "pURLfy removes tracking parameters, unwraps redirect links and follows short links\n" +
		"according to JSON rule sets. Pass one or more URLs to purify them.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		opts.fetchSet = cmd.Flags().Changed("fetch")
		opts.lambdaSet = cmd.Flags().Changed("lambda")
	},
	RunE: runPurify,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default $PURLFY_CONFIG_PATH or purlfy.yaml)")
	f.StringVarP(&opts.rules, "rules", "r", "", "comma-separated rule sets to enable (default: all in list.json)")
	f.StringVar(&opts.rulesDir, "rules-dir", "", "directory holding list.json and <name>.json")
	f.StringVar(&opts.remoteBase, "remote", "", "base URL serving list.json and <name>.min.json")
	f.BoolVar(&opts.fetch, "fetch", false, "allow redirect and visit rules to make network requests")
	f.BoolVar(&opts.lambda, "lambda", false, "allow lambda rules")
	f.IntVarP(&opts.maxIterations, "max-iterations", "n", 0, "maximum rule applications per URL")
	f.StringVar(&opts.baseURL, "base", "", "base URL for resolving relative input")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every purification step")

	rootCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON lines")

	rootCmd.AddCommand(serveCmd, testCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}
