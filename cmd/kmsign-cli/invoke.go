package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kmsign/kmsign/awsclient"
)

var (
	invokeMethod   string
	invokeData     string
	invokeDataFile string
	invokeHeaders  []string
	invokeTarget   string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke [flags] [url]",
	Short: "Send a signed HTTP request",
	Long: `Sign a request with AWS Signature Version 4 and send it.

The response status, headers and body are printed. With --target the
request is a KMS JSON operation instead: it is POSTed to the profile's
endpoint with the X-Amz-Target header set, and only the operation's
result body is printed.

Examples:
  kmsign-cli invoke https://kms.us-east-1.amazonaws.com/
  kmsign-cli invoke -X POST -d '{"Name":"demo"}' https://example.com/objects
  kmsign-cli invoke -H "X-Custom: value" https://example.com/
  kmsign-cli invoke --target ListKeys
  kmsign-cli invoke --target DescribeKey -d '{"KeyId":"alias/demo"}'
  cat payload.json | kmsign-cli invoke --target Encrypt --data-file -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeMethod, "method", "X", http.MethodGet, "HTTP method")
	invokeCmd.Flags().StringVarP(&invokeData, "data", "d", "", "request body")
	invokeCmd.Flags().StringVar(&invokeDataFile, "data-file", "", "read the request body from a file (- for stdin)")
	invokeCmd.Flags().StringArrayVarP(&invokeHeaders, "header", "H", nil, "extra header to sign and send, as 'Name: value' (repeatable)")
	invokeCmd.Flags().StringVarP(&invokeTarget, "target", "t", "", "KMS operation name, e.g. ListKeys")

	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	body, err := readBody(cmd)
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if invokeTarget != "" {
		if len(args) > 0 {
			return errors.New("--target resolves its own endpoint, drop the url argument or use --endpoint")
		}
		if cmd.Flags().Changed("method") {
			return errors.New("--target operations are always POSTed, drop --method")
		}
		if len(invokeHeaders) > 0 {
			return errors.New("--target sets the protocol headers itself, drop --header")
		}

		respBody, err := client.CallKMS(ctx, invokeTarget, body)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = out.Write(respBody)
		if len(respBody) > 0 && respBody[len(respBody)-1] != '\n' {
			_, _ = fmt.Fprintln(out)
		}
		return nil
	}

	if len(args) == 0 {
		return errors.New("url required (or use --target for KMS operations)")
	}

	header, err := parseHeaders(invokeHeaders)
	if err != nil {
		return err
	}

	resp, err := client.Do(ctx, invokeMethod, args[0], header, body)
	if err != nil {
		return err
	}

	result, err := awsclient.NewInvokeResult(resp)
	if err != nil {
		return err
	}

	formatter := getFormatter()
	return formatter.FormatInvoke(os.Stdout, result)
}

// readBody returns the request body from --data or --data-file.
func readBody(cmd *cobra.Command) ([]byte, error) {
	if invokeData != "" && invokeDataFile != "" {
		return nil, errors.New("--data and --data-file are mutually exclusive")
	}

	if invokeData != "" {
		return []byte(invokeData), nil
	}
	if invokeDataFile == "" {
		return nil, nil
	}
	if invokeDataFile == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(invokeDataFile) //#nosec G304 -- path is user-provided input
	if err != nil {
		return nil, fmt.Errorf("read body file: %w", err)
	}
	return data, nil
}

// parseHeaders parses repeated "Name: value" flags into an http.Header.
func parseHeaders(raw []string) (http.Header, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	header := http.Header{}
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("malformed header %q (want 'Name: value')", h)
		}
		header.Add(name, strings.TrimSpace(value))
	}
	return header, nil
}
