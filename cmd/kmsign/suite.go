package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmsign/kmsign/sigtest"
)

var suiteCmd = &cobra.Command{
	Use:   "suite [flags] [case-name]",
	Short: "Run a signature test suite",
	Long: `Run every case found under a test suite directory.

A case is a directory holding <name>.req plus any of <name>.creq,
<name>.sts, <name>.authz and <name>.sreq. Each request is signed with
the suite's fixed credentials and the produced artifacts are compared
byte for byte against the expected files. Pass a case name to run a
single case.

Examples:
  # Run the whole suite
  kmsign suite --dir testdata/aws-sig-v4-test-suite

  # Run one case
  kmsign suite --dir testdata/aws-sig-v4-test-suite get-vanilla`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuite,
}

func init() {
	suiteCmd.Flags().StringP("dir", "d", "", "suite directory (env: KMSIGN_SUITE_DIR)")
	_ = viper.BindPFlag("suite.dir", suiteCmd.Flags().Lookup("dir"))
	rootCmd.AddCommand(suiteCmd)
}

func runSuite(_ *cobra.Command, args []string) error {
	dir := viper.GetString("suite.dir")
	if dir == "" {
		return errors.New("no suite directory set (use --dir or suite.dir)")
	}

	filter := ""
	if len(args) == 1 {
		filter = args[0]
	}

	cfg := sigtest.DefaultConfig()
	cfg.Skip = viper.GetStringSlice("suite.skip")
	if region := viper.GetString("auth.region"); region != "" {
		cfg.Region = region
	}
	if service := viper.GetString("auth.service"); service != "" {
		cfg.Service = service
	}

	results, err := sigtest.RunSuite(os.DirFS(dir), cfg, filter)
	if err != nil {
		return fmt.Errorf("run suite: %w", err)
	}
	if len(results) == 0 {
		if filter != "" {
			return fmt.Errorf("no case named %q under %s", filter, dir)
		}
		return fmt.Errorf("no cases found under %s", dir)
	}

	passed := 0
	failed := 0
	skipped := 0

	for _, res := range results {
		switch {
		case res.Skipped:
			skipped++
			slog.Info("skipped", "case", res.Name)
		case res.Err != nil:
			failed++
			slog.Error("case failed", "case", res.Name, "error", res.Err)
		case res.OK():
			passed++
			slog.Info("ok", "case", res.Name, "artifacts", len(res.Artifacts))
		default:
			failed++
			for _, art := range res.Artifacts {
				if art.OK() {
					continue
				}
				slog.Error("artifact mismatch",
					"case", res.Name,
					"artifact", art.Artifact,
					"offset", art.Mismatch,
					"got_len", len(art.Got),
					"want_len", len(art.Want),
				)
			}
		}
	}

	slog.Info("suite complete", "passed", passed, "failed", failed, "skipped", skipped)

	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	return nil
}
