package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/storage"
	"github.com/pders01/gamelib/internal/tui"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync [platform...]",
		Short: "Refresh the library from every source or the named platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var records []storage.SyncRecord
			if len(args) == 0 {
				records, err = app.manager.SyncAll(ctx)
			} else {
				var errs []error
				for _, platform := range args {
					rec, serr := app.manager.Sync(ctx, platform)
					if rec != nil {
						records = append(records, *rec)
					}
					errs = append(errs, serr)
				}
				err = errors.Join(errs...)
			}

			printSyncRecords(cmd.OutOrStdout(), records)
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	return cmd
}

func printSyncRecords(out io.Writer, records []storage.SyncRecord) {
	if len(records) == 0 {
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		if rec.Err != "" {
			status = rec.Err
		}
		rows = append(rows, []string{
			library.PlatformTitle(rec.Platform),
			fmt.Sprintf("%d", rec.Games),
			rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String(),
			status,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"PLATFORM", "GAMES", "TOOK", "STATUS"}, rows))
}

type listFlags struct {
	search      string
	platforms   []string
	genres      []string
	categories  []string
	features    []string
	installed   bool
	downloading bool
	sort        string
	order       string
	group       string
	json        bool
}

func (lf *listFlags) filter(cmd *cobra.Command) (library.Filter, error) {
	f := library.Filter{
		Search:     strings.TrimSpace(lf.search),
		Platforms:  lf.platforms,
		Genres:     lf.genres,
		Categories: lf.categories,
		Features:   lf.features,
	}
	if cmd.Flags().Changed("installed") {
		f.Installed = &lf.installed
	}
	if cmd.Flags().Changed("downloading") {
		f.Downloading = &lf.downloading
	}

	var err error
	if f.SortBy, err = library.ParseSortBy(lf.sort); err != nil {
		return f, err
	}
	if f.SortOrder, err = library.ParseSortOrder(lf.order); err != nil {
		return f, err
	}
	if f.GroupBy, err = library.ParseGroupBy(lf.group); err != nil {
		return f, err
	}
	return f, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the games in the local library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lf.filter(cmd)
			if err != nil {
				return err
			}

			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			games, err := app.manager.Games(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.GroupBy != library.GroupNone {
				groups := f.Group(games)
				if lf.json {
					return writeJSON(out, groups)
				}
				for _, g := range groups {
					fmt.Fprintln(out, tui.HeaderStyle.Render(fmt.Sprintf("%s (%d)", g.Name, len(g.Games))))
					fmt.Fprintln(out, gamesTable(g.Games))
				}
				return nil
			}

			if lf.json {
				return writeJSON(out, games)
			}
			if len(games) == 0 {
				fmt.Fprintln(out, "No games found. Run `gamelib sync` to fetch your library.")
				return nil
			}
			fmt.Fprintln(out, gamesTable(games))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&lf.search, "search", "s", "", "Only games whose name contains this text")
	flags.StringSliceVar(&lf.platforms, "platform", nil, "Platforms to include")
	flags.StringSliceVar(&lf.genres, "genre", nil, "Genres to include")
	flags.StringSliceVar(&lf.categories, "category", nil, "Categories to include")
	flags.StringSliceVar(&lf.features, "feature", nil, "Features to include")
	flags.BoolVar(&lf.installed, "installed", false, "Only installed (or with =false, not installed) games")
	flags.BoolVar(&lf.downloading, "downloading", false, "Only downloading games")
	flags.StringVar(&lf.sort, "sort", "name", "Sort by name, playtime, lastPlayed, releaseDate, fileSize or rating")
	flags.StringVar(&lf.order, "order", "asc", "Sort order: asc or desc")
	flags.StringVar(&lf.group, "group", "", "Group by genre, category, platform, installed or features")
	flags.BoolVar(&lf.json, "json", false, "Print JSON")
	return cmd
}

func gamesTable(games []*storage.Game) string {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			g.ID,
			g.Name,
			library.PlatformTitle(g.Platform),
			playtime(g.Playtime),
			installLabel(g),
		})
	}
	return renderTable([]string{"ID", "NAME", "PLATFORM", "PLAYTIME", "STATUS"}, rows)
}

func installLabel(g *storage.Game) string {
	switch {
	case g.Installed:
		return "installed"
	case g.Downloading && g.DownloadProgress != nil:
		return fmt.Sprintf("downloading %.0f%%", *g.DownloadProgress)
	case g.Downloading:
		return "downloading"
	}
	return ""
}

func playtime(minutes int) string {
	if minutes == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			games, err := app.manager.Games(library.Filter{})
			if err != nil {
				return err
			}
			stats := library.ComputeStats(games)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}

			fmt.Fprintf(out, "Games:        %d (%d installed)\n", stats.TotalGames, stats.InstalledGames)
			fmt.Fprintf(out, "Playtime:     %s\n", playtime(stats.TotalPlaytime))
			fmt.Fprintf(out, "Value:        $%.2f\n", float64(stats.LibraryValue)/100)
			ap := stats.AchievementProgress
			fmt.Fprintf(out, "Achievements: %d / %d (%.1f%%)\n", ap.Unlocked, ap.Total, ap.Percentage)
			if top := stats.TopGenres(5); len(top) > 0 {
				fmt.Fprintf(out, "Top genres:   %s\n", strings.Join(top, ", "))
			}
			if len(stats.MostPlayed) > 0 {
				fmt.Fprintln(out, tui.HeaderStyle.Render("Most played"))
				fmt.Fprintln(out, gamesTable(stats.MostPlayed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search names, genres, tags, developers and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return errors.New("--limit must be positive")
			}
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.searcher.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				field := ""
				if len(r.Matches) > 0 {
					field = r.Matches[0].Field
				}
				rows = append(rows, []string{fmt.Sprintf("%.2f", r.Score), r.Game.ID, r.Game.Name, field})
			}
			fmt.Fprintln(out, renderTable([]string{"SCORE", "ID", "NAME", "MATCH"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	return cmd
}

func newNewsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "news <game-id>",
		Short: "Show recent news for a catalog game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			game, err := app.manager.Game(args[0])
			if err != nil {
				return fmt.Errorf("game %s: %w", args[0], err)
			}
			if game.Platform != catalog.Platform {
				return fmt.Errorf("news is only available for %s games", library.PlatformTitle(catalog.Platform))
			}
			if limit < 1 {
				limit = app.cfg.UI.Detail.NewsItems
			}

			items, err := app.news().Fetch(cmd.Context(), game.ExternalID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No news for %s\n", game.Name)
				return nil
			}
			for _, it := range items {
				fmt.Fprintln(out, tui.TitleStyle.Render(it.Title))
				meta := []string{}
				if !it.Published.IsZero() {
					meta = append(meta, it.Published.Format("Jan 2, 2006"))
				}
				if it.Link != "" {
					meta = append(meta, it.Link)
				}
				if len(meta) > 0 {
					fmt.Fprintln(out, tui.HelpStyle.Render(strings.Join(meta, " · ")))
				}
				if it.Summary != "" {
					fmt.Fprintln(out, it.Summary)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of posts (default from config)")
	return cmd
}

func renderTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tui.SeparatorStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
