package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/converter"
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd/setup"
)

const (
	FlagFile    = "file"
	FlagBaseURL = "base-url"
	FlagIIIFURL = "iiif-url"
	FlagOutput  = "output"

	OutputFormatJSON      = "json"
	OutputFormatYAML      = "yaml"
	OutputFormatCanonical = "canonical"

	// StdinFile reads the input from standard input.
	StdinFile = "-"
)

// New represents the commands running a converter.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert {to-text|from-text}",
		Short: "Convert documents to and from text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newToText())
	cmd.AddCommand(newFromText())

	return cmd
}

func newToText() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-text NAME",
		Short: "Convert a JSON or YAML document to text with the named converter.",
		Args:  cobra.ExactArgs(1),
		Example: `  # Render a document with the yaml converter.
  ocm-converter convert to-text yaml --file document.json

  # Render a document with links to its web and IIIF representation.
  ocm-converter convert to-text xml --file document.json --base-url https://example.org --iiif-url https://iiif.example.org
`,
		RunE:              ToText,
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagFile, "i", StdinFile, `document to convert, "-" reads standard input`)
	cmd.Flags().String(FlagBaseURL, "", "base URL linked from the text")
	cmd.Flags().String(FlagIIIFURL, "", "IIIF URL linked from the text")

	return cmd
}

func newFromText() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-text NAME",
		Short: "Convert text to a document with the named converter.",
		Args:  cobra.ExactArgs(1),
		Example: `  # Parse a YAML file and print the document as JSON.
  ocm-converter convert from-text yaml --file document.yaml
`,
		RunE:              FromText,
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagFile, "i", StdinFile, `text to convert, "-" reads standard input`)
	cmd.Flags().StringP(FlagOutput, "o", OutputFormatJSON, "output format of the document (json, yaml, canonical)")

	return cmd
}

func ToText(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input, err := readInput(cmd)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	baseURL, err := cmd.Flags().GetString(FlagBaseURL)
	if err != nil {
		return err
	}
	iiifURL, err := cmd.Flags().GetString(FlagIIIFURL)
	if err != nil {
		return err
	}

	return withRegistry(ctx, func(registry *converter.Registry) error {
		c, err := registry.GetConvertibleToTextConverter(ctx, args[0])
		if err != nil {
			return err
		}
		defer release(ctx, cmd, c)

		var text string
		if baseURL != "" || iiifURL != "" {
			text, err = c.ConvertWithLinks(ctx, doc, converter.ExternalURLs{BaseURL: baseURL, IIIFURL: iiifURL})
		} else {
			text, err = c.Convert(ctx, doc)
		}
		if err != nil {
			return fmt.Errorf("converting document with %q failed: %w", args[0], err)
		}

		_, err = io.WriteString(cmd.OutOrStdout(), text)
		return err
	})
}

func FromText(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	output, err := cmd.Flags().GetString(FlagOutput)
	if err != nil {
		return err
	}
	if output != OutputFormatJSON && output != OutputFormatYAML && output != OutputFormatCanonical {
		return fmt.Errorf("invalid output format %q", output)
	}

	input, err := readInput(cmd)
	if err != nil {
		return err
	}

	return withRegistry(ctx, func(registry *converter.Registry) error {
		c, err := registry.GetTextToConvertibleConverter(ctx, args[0])
		if err != nil {
			return err
		}
		defer release(ctx, cmd, c)

		doc, err := c.Convert(ctx, string(input))
		if err != nil {
			return fmt.Errorf("converting text with %q failed: %w", args[0], err)
		}

		return writeDocument(cmd.OutOrStdout(), doc, output)
	})
}

func writeDocument(writer io.Writer, doc converter.Convertible, format string) error {
	switch format {
	case OutputFormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = writer.Write(data)
		return err
	case OutputFormatCanonical:
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		canonical, err := jsoncanonicalizer.Transform(data)
		if err != nil {
			return fmt.Errorf("failed to canonicalize document: %w", err)
		}
		_, err = fmt.Fprintln(writer, string(canonical))
		return err
	default:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	}
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	path, err := cmd.Flags().GetString(FlagFile)
	if err != nil {
		return nil, err
	}
	if path == StdinFile {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

func withRegistry(ctx context.Context, fn func(registry *converter.Registry) error) (err error) {
	registry, closeRegistry, err := setup.Registry(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeRegistry(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("failed to release converter plugins: %w", cerr)
		}
	}()
	return fn(registry)
}

// release closes converters backed by resources such as plugin instances.
func release(ctx context.Context, cmd *cobra.Command, c any) {
	closer, ok := c.(interface{ Close(context.Context) error })
	if !ok {
		return
	}
	if err := closer.Close(ctx); err != nil {
		cmd.PrintErrf("failed to close converter: %v\n", err)
	}
}
