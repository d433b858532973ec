package cmd

import (
	"encoding/json"
	"fmt"
	"go/types"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/cmd/utils"
	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
	"github.com/stellar/graphql-stitcher/pkg/gqlsplit"
)

const (
	splitModeMatching    = "matching"
	splitModeNotMatching = "not-matching"
	splitModeBoth        = "both"
)

type splitCmd struct{}

type splitOutput struct {
	Matching    string `json:"matching"`
	NotMatching string `json:"notMatching"`
}

func (c *splitCmd) Command() *cobra.Command {
	var introspectionFiles []string
	var mode string
	cfgOpts := config.ConfigOptions{
		{
			Name:           "introspection-files",
			Usage:          "Comma-separated introspection JSON files. Their schemas are merged in order, the first file to define a name wins.",
			OptType:        types.String,
			CustomSetValue: utils.SetConfigOptionStringList,
			ConfigKey:      &introspectionFiles,
			Required:       true,
		},
		{
			Name:        "mode",
			Usage:       `What to print: "matching" (the part the schemas serve), "not-matching" (the rest) or "both" as JSON.`,
			OptType:     types.String,
			ConfigKey:   &mode,
			FlagDefault: splitModeBoth,
			Required:    false,
		},
	}

	cmd := &cobra.Command{
		Use:               "split <request-file>",
		Short:             "Split a GraphQL request against introspection files, without any backend",
		Long:              `Split a GraphQL request against introspection files, without any backend. Use "-" to read the request from stdin.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := readRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return c.Run(cmd.OutOrStdout(), introspectionFiles, mode, request)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *splitCmd) Run(out io.Writer, introspectionFiles []string, mode, request string) error {
	models := make([]*gqlschema.Model, 0, len(introspectionFiles))
	for _, path := range introspectionFiles {
		document, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading introspection file %s: %w", path, err)
		}
		model, err := gqlschema.Load(document)
		if err != nil {
			return fmt.Errorf("loading introspection file %s: %w", path, err)
		}
		models = append(models, model)
	}

	merged, err := gqlschema.MergeMany(models...)
	if err != nil {
		return fmt.Errorf("merging introspection files: %w", err)
	}
	splitter := gqlsplit.New(merged)

	switch mode {
	case splitModeMatching:
		matching, err := splitter.Matching(request)
		if err != nil {
			return fmt.Errorf("computing matching request: %w", err)
		}
		_, err = fmt.Fprintln(out, matching)
		return err //nolint:wrapcheck // writing to stdout
	case splitModeNotMatching:
		notMatching, err := splitter.NotMatching(request)
		if err != nil {
			return fmt.Errorf("computing not matching request: %w", err)
		}
		_, err = fmt.Fprintln(out, notMatching)
		return err //nolint:wrapcheck // writing to stdout
	case splitModeBoth:
		var output splitOutput
		if output.Matching, err = splitter.Matching(request); err != nil {
			return fmt.Errorf("computing matching request: %w", err)
		}
		if output.NotMatching, err = splitter.NotMatching(request); err != nil {
			return fmt.Errorf("computing not matching request: %w", err)
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("encoding split output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("invalid mode %q, expected one of %q, %q or %q", mode, splitModeMatching, splitModeNotMatching, splitModeBoth)
	}
}

func readRequest(stdin io.Reader, path string) (string, error) {
	var (
		request []byte
		err     error
	)
	if path == "-" {
		request, err = io.ReadAll(stdin)
	} else {
		request, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading request %s: %w", path, err)
	}
	return string(request), nil
}
