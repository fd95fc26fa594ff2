package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typingfast/internal/screen"
	"github.com/verte-zerg/typingfast/internal/stats"
)

var (
	dashboardPlain bool

	historyPage  int
	historySize  int
	historyLocal bool
	historyLimit int
)

const (
	defaultHistorySize  = 10
	defaultHistoryLimit = 20
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your statistics",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	cmd.Flags().BoolVar(&dashboardPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	if err := requireLogin(env); err != nil {
		return err
	}

	if !dashboardPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		return runApp(env, screen.RouteDashboard)
	}
	report, err := stats.BuildReport(commandContext(cmd), env.client)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	return stats.RenderSummary(cmd.OutOrStdout(), report, nil)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past tests",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyPage, "page", 0, "page number, starting at 0")
	cmd.Flags().IntVar(&historySize, "size", defaultHistorySize, "tests per page")
	cmd.Flags().BoolVar(&historyLocal, "local", false, "list results recorded on this machine")
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "max local results (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyPage < 0 {
		return fmt.Errorf("--page must be >= 0")
	}
	if historySize <= 0 {
		return fmt.Errorf("--size must be > 0")
	}
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if historyLocal {
		results, err := env.store.ListResults(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to read local results: %w", err)
		}
		return stats.RenderLocalResults(out, results, nil)
	}

	if err := requireLogin(env); err != nil {
		return err
	}
	page, err := env.client.History(ctx, historyPage, historySize)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := stats.RenderHistory(out, page.Content, nil); err != nil {
		return err
	}
	if page.TotalPages > 0 {
		_, err = fmt.Fprintf(out, "\nPage %d of %d (%d tests)\n", page.Number+1, page.TotalPages, page.TotalElements)
	}
	return err
}
