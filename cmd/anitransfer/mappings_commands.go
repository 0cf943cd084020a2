package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"anitransfer/internal/logging"
	"anitransfer/internal/mappings"
)

func newMappingsCommand(cmdCtx *commandContext) *cobra.Command {
	mappingsCmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect and edit the persistent title mappings",
	}

	mappingsCmd.AddCommand(newMappingsListCommand(cmdCtx))
	mappingsCmd.AddCommand(newMappingsRemoveCommand(cmdCtx))

	return mappingsCmd
}

func openMappings(cmdCtx *commandContext) (*mappings.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return mappings.NewStore(cfg.Paths.MappingFile, logging.NewNop()), nil
}

func newMappingsListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted title-to-id mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMappings(cmdCtx)
			if err != nil {
				return err
			}
			all, err := store.All()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No mappings stored yet.")
				return nil
			}
			rows := make([][]string, 0, len(all))
			for _, pair := range all {
				rows = append(rows, []string{pair[0], pair[1]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title", "MAL ID"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newMappingsRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <title>",
		Short: "Remove one persisted mapping so the title is resolved again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMappings(cmdCtx)
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed mapping for %q\n", args[0])
			return nil
		},
	}
}
