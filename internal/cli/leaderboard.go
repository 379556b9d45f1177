package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"riddle-quiz-service/internal/config"
	"riddle-quiz-service/internal/domain"
)

// NewLeaderboardCmd prints the top players from the configured player store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top players by best Time Challenge score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd.Context(), cmd.OutOrStdout(), *configPath, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of players to show")
	return cmd
}

func runLeaderboard(ctx context.Context, out io.Writer, configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" && cfg.Redis.Addr == "" {
		return fmt.Errorf("leaderboard needs postgres or redis configured")
	}

	deps, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	board, err := deps.playerDirectory().Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	return printLeaderboard(out, board)
}

func printLeaderboard(out io.Writer, board []domain.LeaderboardEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tBEST SCORE\tCLASSIC")
	for _, entry := range board {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", entry.Rank, entry.PlayerID, entry.BestScore, entry.ClassicCompletion)
	}
	return w.Flush()
}
