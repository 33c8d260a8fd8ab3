package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/normalize"
)

// pageFlags are shared by every paged career listing
type pageFlags struct {
	page     int
	pageSize int
	sortBy   string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&f.pageSize, "page-size", normalize.DefaultPageSize, "careers per page")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "sort field, prefix with - for descending")
}

func (f *pageFlags) params() normalize.PaginationParams {
	return normalize.PaginationParams{Page: f.page, PageSize: f.pageSize}
}

func (c *cli) careersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "careers",
		Aliases: []string{"career"},
		Short:   "Browse the career catalogue",
	}
	cmd.AddCommand(
		c.careersListCmd(),
		c.careersShowCmd(),
		c.careersSearchCmd(),
		c.careersSkillsCmd(),
		c.careersCategoryCmd(),
	)
	return cmd
}

func (c *cli) careersListCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List careers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			res, err := core.Careers.List(cmd.Context(), pf.params(), domain.CareerQuery{SortBy: pf.sortBy})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return renderPage(w, "Careers", res)
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func (c *cli) careersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <career-id>",
		Short: "Show one career",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := c.coreFor(ctx)
			if err != nil {
				return err
			}
			item, err := core.Careers.Detail(ctx, args[0])
			if errors.Is(err, career.ErrNotFound) {
				return fmt.Errorf("career %s does not exist", args[0])
			}
			if err != nil {
				return err
			}
			if core.Session.LoggedIn() {
				if fav, err := core.Careers.IsFavorite(ctx, args[0]); err == nil {
					item.IsFavorite = fav
				}
			}
			return c.emit(cmd.OutOrStdout(), item, func(w io.Writer) error {
				return renderCareer(w, item)
			})
		},
	}
}

func (c *cli) careersSearchCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search careers by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			keyword := strings.Join(args, " ")
			res, err := core.Careers.Search(cmd.Context(), keyword, pf.params(), domain.CareerQuery{SortBy: pf.sortBy})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return renderPage(w, fmt.Sprintf("Careers matching %q", keyword), res)
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func (c *cli) careersSkillsCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "skills <skill> [skill...]",
		Short: "List careers requiring any of the given skills",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			var skills []string
			for _, arg := range args {
				skills = append(skills, strings.Split(arg, ",")...)
			}
			res, err := core.Careers.BySkills(cmd.Context(), skills, pf.params(), domain.CareerQuery{SortBy: pf.sortBy})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return renderPage(w, "Careers by skill", res)
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func (c *cli) careersCategoryCmd() *cobra.Command {
	var (
		pf         pageFlags
		includeSub bool
	)
	cmd := &cobra.Command{
		Use:   "category <category-id>",
		Short: "List the careers of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			res, err := core.Careers.CategoryCareers(cmd.Context(), args[0], pf.params(), domain.CareerQuery{
				SortBy:               pf.sortBy,
				IncludeSubcategories: includeSub,
			})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return renderPage(w, "Category "+args[0], res)
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&includeSub, "include-subcategories", false, "include careers filed under subcategories")
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			var cats []domain.Category
			if flat {
				cats, err = core.Careers.Categories(cmd.Context(), false)
			} else {
				cats, err = core.Careers.CategoryTree(cmd.Context())
			}
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), cats, func(w io.Writer) error {
				return renderTree(w, cats)
			})
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "list categories without nesting")
	return cmd
}

func (c *cli) recommendCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show careers recommended from your favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			core, err := c.signedIn(ctx)
			if err != nil {
				return err
			}
			recs, err := core.Careers.Recommendations(ctx, userID)
			if err != nil {
				return sessionErr(ctx, core.Session, err)
			}
			return c.emit(cmd.OutOrStdout(), recs, func(w io.Writer) error {
				return renderRecommendations(w, recs)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "recommend for another user id")
	return cmd
}
