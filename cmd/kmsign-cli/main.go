package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmsign/kmsign/awsclient"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	region      string
	service     string
	endpoint    string
	accessKey   string
	secretKey   string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "kmsign-cli",
	Version: version,
	Short:   "Client for services speaking AWS Signature Version 4",
	Long: `kmsign-cli signs HTTP requests with AWS Signature Version 4 and
sends them.

Credentials and scope come from profiles in ~/.kmsign/config.yaml,
environment variables, or flags (flags win). KMS operations have a
shortcut: 'invoke --target <Action>' speaks the X-Amz-Target JSON
protocol against the profile's endpoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.kmsign/config.yaml, env: KMSIGN_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (default: the default profile, env: KMSIGN_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "signing region (env: AWS_REGION)")
	rootCmd.PersistentFlags().StringVar(&service, "service", "", "signing service name (default: kms)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "endpoint URL (env: AWS_ENDPOINT_URL)")
	rootCmd.PersistentFlags().StringVarP(&accessKey, "access-key", "a", "", "access key ID (env: AWS_ACCESS_KEY_ID)")
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "k", "", "secret access key (env: AWS_SECRET_ACCESS_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path: flag, env, then the default
// location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := awsclient.ConfigPathFromEnv(); p != "" {
		return p
	}
	return awsclient.DefaultConfigPath()
}

// buildConfig merges config from the selected profile, env vars, and flags
// (flags take precedence).
func buildConfig() (*awsclient.Config, error) {
	var configs []*awsclient.Config

	name := profileName
	if name == "" {
		name = awsclient.ProfileFromEnv()
	}

	fileCfg, err := awsclient.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := fileCfg.GetProfile(name)
		if profileErr != nil {
			// A missing default profile is fine, env and flags may still
			// carry credentials. A profile asked for by name has to exist.
			if name != "" || !errors.Is(profileErr, awsclient.ErrNoProfiles) {
				return nil, profileErr
			}
		}
		if p != nil {
			configs = append(configs, awsclient.ConfigFromProfile(p))
		}
	case name != "" || cfgFile != "" || !errors.Is(err, os.ErrNotExist):
		// Only a missing default config file is tolerable. A file the user
		// named, or one that exists but cannot be parsed, has to load.
		return nil, err
	}

	configs = append(configs, awsclient.ConfigFromEnv())

	configs = append(configs, &awsclient.Config{
		Region:    region,
		Service:   service,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	})

	return awsclient.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() awsclient.Formatter {
	return awsclient.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*awsclient.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return awsclient.New(cfg)
}
