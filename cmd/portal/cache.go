package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and control the category cache",
	}

	var category string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached category listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			if category != "" {
				core.Careers.InvalidateCategory(cmd.Context(), category)
				return success(cmd.OutOrStdout(), "category %s dropped from the cache", category)
			}
			core.Careers.InvalidateAll(cmd.Context())
			return success(cmd.OutOrStdout(), "cache cleared")
		},
	}
	clearCmd.Flags().StringVar(&category, "category", "", "drop only this category")

	refreshCmd := &cobra.Command{
		Use:   "refresh <category-id> [category-id...]",
		Short: "Fetch categories now and store them in the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if core.Careers.CacheBypassed(id) {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("category "+id+" bypasses the cache"))
					continue
				}
				n, err := core.Careers.RefreshCategory(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := success(cmd.OutOrStdout(), "category %s: %d careers cached", id, n); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(clearCmd, refreshCmd)
	return cmd
}
