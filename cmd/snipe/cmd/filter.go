package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
	"github.com/1ts-org/snipe/internal/registry"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Maintain the saved filter registry",
}

var filterCheckCmd = &cobra.Command{
	Use:   "check <filter text>",
	Short: "Parse and validate filter text without saving it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		f, err := filter.Parse(text)
		if err != nil {
			return err
		}
		if err := filter.Validate(f, message.KnownField); err != nil {
			return err
		}
		fmt.Println(f)
		return nil
	},
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <name> <filter text>",
	Short: "Save a named filter",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()
		return reg.SaveText(args[0], strings.Join(args[1:], " "))
	},
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range reg.Names() {
			source, _ := reg.Source(name)
			marker := ""
			if name == reg.DefaultName() {
				marker = "*"
			}
			fmt.Fprintf(w, "%s%s\t%s\n", name, marker, source)
		}
		return w.Flush()
	},
}

var filterRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()
		return reg.Delete(args[0])
	},
}

var filterDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Designate a saved filter as the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()
		return reg.SetDefault(args[0])
	},
}

func openRegistry() (*registry.Registry, error) {
	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("open filter registry: %w", err)
	}
	return reg.WithLogger(logger), nil
}

func init() {
	filterCmd.AddCommand(filterCheckCmd, filterSaveCmd, filterListCmd, filterRmCmd, filterDefaultCmd)
	rootCmd.AddCommand(filterCmd)
}
