package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/settings"
	"github.com/spf13/cobra"
)

func (c *cli) toolsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Discover the API schema and list the generated tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.openApp(nil)
			if err != nil {
				return err
			}
			defer application.Close()

			tools, err := application.Bridge.ListTools(contextOf(cmd))
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(c, tools)
			}

			w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			for _, t := range tools {
				md, _ := application.Bridge.Catalog().Lookup(t.Name)
				fmt.Fprintf(w, "%s\t%s %s\t%s\n", t.Name, md.Method, md.Path, t.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "%d tools\n", len(tools))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tool descriptors as JSON")
	return cmd
}

func (c *cli) callCmd() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one tool and print the JSON result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}

			application, err := c.openApp(nil)
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Bridge.CallTool(contextOf(cmd), args[0], toolArgs)
			if err != nil {
				return err
			}
			return writeJSON(c, res)
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", "Tool arguments as a JSON object")
	return cmd
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Discover and print the API schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.openApp(nil)
			if err != nil {
				return err
			}
			defer application.Close()

			if _, err := application.Bridge.ListTools(contextOf(cmd)); err != nil {
				return err
			}
			return writeJSON(c, application.Bridge.Schema())
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write persistent host settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the effective value of a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := c.openApp(nil)
				if err != nil {
					return err
				}
				defer application.Close()

				v, err := application.Settings.Value(contextOf(cmd), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.stdout, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Persist a setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := c.openApp(nil)
				if err != nil {
					return err
				}
				defer application.Close()

				if err := application.Settings.Set(contextOf(cmd), args[0], args[1]); err != nil {
					return settingsError(err)
				}
				fmt.Fprintf(c.stderr, "%s = %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a persisted setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := c.openApp(nil)
				if err != nil {
					return err
				}
				defer application.Close()

				return settingsError(application.Settings.Unset(contextOf(cmd), args[0]))
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every effective setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := c.openApp(nil)
				if err != nil {
					return err
				}
				defer application.Close()

				all, err := application.Settings.All(contextOf(cmd))
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(c.stdout, "%s = %s\n", k, all[k])
				}
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintf(c.stdout, "apibridge version %s\n", common.GetFullVersion())
		},
	}
}

func settingsError(err error) error {
	if errors.Is(err, settings.ErrReadOnly) {
		return fmt.Errorf("%w: set storage.badger.path to persist settings", err)
	}
	return err
}

func writeJSON(c *cli, v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
