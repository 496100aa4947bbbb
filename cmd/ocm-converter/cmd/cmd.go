package cmd

import (
	"os"

	"github.com/spf13/cobra"

	_ "ocm.software/open-component-model/bindings/go/converter/builtin"
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd/convert"
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd/list"
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd/setup"
	"ocm.software/open-component-model/bindings/go/converter/internal/log"
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	err := New().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocm-converter [sub-command]",
		Short: "Convert documents to and from text with discovered converters",
		Long: `The converter command line client lists the available converter factories and
  runs their converters. Converters are compiled into the binary or loaded as
  wasm plugins from the plugin directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setup.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	setup.RegisterFlags(cmd.PersistentFlags())
	log.RegisterLoggingFlags(cmd.PersistentFlags())
	cmd.AddCommand(list.New())
	cmd.AddCommand(convert.New())
	return cmd
}
