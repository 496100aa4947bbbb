package list

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/converter"
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd/setup"
	"ocm.software/open-component-model/bindings/go/converter/wasm"
)

const (
	FlagOutput = "output"

	OutputFormatTable = "table"
	OutputFormatYAML  = "yaml"
	OutputFormatJSON  = "json"

	SourceBuiltin = "builtin"
)

var outputFormats = []string{OutputFormatTable, OutputFormatYAML, OutputFormatJSON}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the discovered converter factories.",
		Args:  cobra.ExactArgs(0),
		Example: `  # List all converter factories including the wasm plugins of a directory.
  ocm-converter list --plugin-directory ~/.config/ocm/converters

  # List the XML converter factories as YAML.
  ocm-converter list --factory "xml*" -o yaml
`,
		RunE:              ListFactories,
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagOutput, "o", OutputFormatTable, fmt.Sprintf("output format of the factory list (%s)", outputFormatList()))

	return cmd
}

// FactoryInfo describes a discovered converter factory.
type FactoryInfo struct {
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Source         string `json:"source"`
	Digest         string `json:"digest,omitempty"`
}

func ListFactories(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	output, err := cmd.Flags().GetString(FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	if !slices.Contains(outputFormats, output) {
		return fmt.Errorf("invalid output format %q, expected one of %s", output, outputFormatList())
	}

	registry, closeRegistry, err := setup.Registry(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRegistry(ctx); err != nil {
			cmd.PrintErrf("failed to release converter plugins: %v\n", err)
		}
	}()

	factories, err := registry.Factories(ctx)
	if err != nil {
		return err
	}

	infos := make([]FactoryInfo, 0, len(factories))
	for _, factory := range factories {
		infos = append(infos, describe(factory))
	}

	return render(cmd.OutOrStdout(), infos, output)
}

func describe(factory converter.Factory) FactoryInfo {
	info := FactoryInfo{
		Name:           factory.Name(),
		Implementation: fmt.Sprintf("%T", factory),
		Source:         SourceBuiltin,
	}
	if plugin, ok := factory.(*wasm.Factory); ok {
		info.Source = plugin.Path()
		info.Digest = plugin.Digest().String()
	}
	return info
}

func render(writer io.Writer, infos []FactoryInfo, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case OutputFormatYAML:
		data, err := yaml.Marshal(infos)
		if err != nil {
			return err
		}
		_, err = writer.Write(data)
		return err
	default:
		t := table.NewWriter()
		t.SetOutputMirror(writer)
		t.AppendHeader(table.Row{"Name", "Implementation", "Source", "Digest"})
		for _, info := range infos {
			t.AppendRow(table.Row{info.Name, info.Implementation, info.Source, info.Digest})
		}
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return nil
	}
}

func outputFormatList() string {
	return strings.Join(outputFormats, ", ")
}
