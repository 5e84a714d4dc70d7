package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hantianjz/semhl/internal/colorcache"
	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/logging"
)

func newCacheCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persisted color cache",
	}

	withStore := func(run func(cmd *cobra.Command, store *colorcache.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.CachePath()
			if err != nil {
				return fmt.Errorf("resolving cache path: %w", err)
			}
			return run(cmd, colorcache.NewStore(path, logging.Component("colorcache")))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache file location",
			RunE: withStore(func(cmd *cobra.Command, store *colorcache.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), store.Path())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the cached identifier colors",
			RunE: withStore(func(cmd *cobra.Command, store *colorcache.Store) error {
				file := store.Load()
				if file.SettingsHash == "" && len(file.Colors) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "settings: %s\n", file.SettingsHash)
				ids := make([]string, 0, len(file.Colors))
				for id := range file.Colors {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", file.Colors[id], id)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cache file",
			RunE: withStore(func(cmd *cobra.Command, store *colorcache.Store) error {
				store.Clear()
				fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
				return nil
			}),
		},
	)
	return cmd
}
