package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quatton/qwex-trainer/pkg/qapi"
	"github.com/quatton/qwex-trainer/pkg/qapi/routes"
	"github.com/spf13/cobra"
)

// openapiCmd represents the openapi command
var openapiCmd = &cobra.Command{
	Use:     "openapi",
	Aliases: []string{"spec"},
	Short:   "Generate OpenAPI document",
	Long:    `Outputs the OpenAPI document for the trainer API without connecting to any config source.`,
	RunE:    generateOpenAPI,
}

var (
	openapiOutput    string
	openapiFormat    string
	openapiDowngrade bool
)

func init() {
	rootCmd.AddCommand(openapiCmd)
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Write output to file (default stdout)")
	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "Output format: json or yaml")
	openapiCmd.Flags().BoolVar(&openapiDowngrade, "downgrade", true, "Downgrade OpenAPI to 3.0 when generating the document")
}

func generateOpenAPI(cmd *cobra.Command, args []string) error {
	api := qapi.NewApi()
	routes.RegisterAPI(api.Api, api.Router, nil)

	doc := api.Api.OpenAPI()

	var (
		out []byte
		err error
	)
	switch {
	case openapiFormat == "yaml" && openapiDowngrade:
		out, err = doc.DowngradeYAML()
	case openapiFormat == "yaml":
		out, err = doc.YAML()
	case openapiFormat != "json":
		return fmt.Errorf("unknown format %q", openapiFormat)
	case openapiDowngrade:
		out, err = doc.Downgrade()
	default:
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to generate OpenAPI document: %w", err)
	}

	if openapiOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	if err := os.WriteFile(openapiOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write OpenAPI document to %s: %w", openapiOutput, err)
	}
	return nil
}
