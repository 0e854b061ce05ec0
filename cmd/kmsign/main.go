package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmsign/kmsign/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "kmsign",
	Short:   "AWS Signature Version 4 signing toolbox",
	Long: `kmsign computes AWS Signature Version 4 artifacts for HTTP requests:
canonical requests, strings to sign, signatures, and signed requests.
It can replay the official AWS signature test suite and run a server
that verifies and explains inbound request signatures.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		readConfig(cmd)
		setupLogging()

		var files []string
		if configFile, err := cmd.Flags().GetString("config"); err == nil && configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("region", "", "signing region (default: us-east-1, env: KMSIGN_AUTH_REGION)")
	rootCmd.PersistentFlags().String("service", "", "signing service name (default: service, env: KMSIGN_AUTH_SERVICE)")

	_ = viper.BindPFlag("auth.region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("auth.service", rootCmd.PersistentFlags().Lookup("service"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
