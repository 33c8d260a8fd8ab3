package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/app"
)

type favoriteState struct {
	CareerID   string `json:"career_id"`
	IsFavorite bool   `json:"is_favorite"`
}

func (c *cli) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite careers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite careers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			core, err := c.signedIn(ctx)
			if err != nil {
				return err
			}
			items, err := core.Careers.Favorites(ctx)
			if err != nil {
				return sessionErr(ctx, core.Session, err)
			}
			return c.emit(cmd.OutOrStdout(), items, func(w io.Writer) error {
				if len(items) == 0 {
					_, err := io.WriteString(w, mutedStyle.Render("no favorites yet")+"\n")
					return err
				}
				_, err := io.WriteString(w, titleStyle.Render("Favorites")+"\n"+careerTable(items).render())
				return err
			})
		},
	}

	cmd.AddCommand(
		list,
		c.favoriteActionCmd("add", "Add a career to favorites", func(cmd *cobra.Command, core *app.Core, id string) (bool, error) {
			return true, core.Careers.AddFavorite(cmd.Context(), id)
		}),
		c.favoriteActionCmd("remove", "Remove a career from favorites", func(cmd *cobra.Command, core *app.Core, id string) (bool, error) {
			return false, core.Careers.RemoveFavorite(cmd.Context(), id)
		}),
		c.favoriteActionCmd("toggle", "Flip a career's favorite state", func(cmd *cobra.Command, core *app.Core, id string) (bool, error) {
			return core.Careers.ToggleFavorite(cmd.Context(), id)
		}),
		c.favoriteActionCmd("check", "Report whether a career is a favorite", func(cmd *cobra.Command, core *app.Core, id string) (bool, error) {
			return core.Careers.IsFavorite(cmd.Context(), id)
		}),
	)
	return cmd
}

func (c *cli) favoriteActionCmd(use, short string, act func(*cobra.Command, *app.Core, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <career-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := c.signedIn(ctx)
			if err != nil {
				return err
			}
			fav, err := act(cmd, core, args[0])
			if err != nil {
				return sessionErr(ctx, core.Session, err)
			}
			state := favoriteState{CareerID: args[0], IsFavorite: fav}
			return c.emit(cmd.OutOrStdout(), state, func(w io.Writer) error {
				if fav {
					return success(w, "career %s is a favorite", args[0])
				}
				_, err := io.WriteString(w, mutedStyle.Render("career "+args[0]+" is not a favorite")+"\n")
				return err
			})
		},
	}
}
