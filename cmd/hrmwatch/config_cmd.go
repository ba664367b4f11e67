package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/hrmwatch/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigGet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Change a setting and save it",
		Example: "  hrmwatch config set max_rate 150\n  hrmwatch config set vibration true",
		Args:    cobra.ExactArgs(2),
		RunE:    runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return cmd
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if len(args) == 1 {
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range config.Keys() {
		v, _ := cfg.Get(key)
		fmt.Fprintf(w, "%s\t%s\n", key, v)
	}
	return w.Flush()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	v, _ := cfg.Get(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
	return nil
}
