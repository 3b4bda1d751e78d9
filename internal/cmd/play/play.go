// Package play implements the interactive detective CLI client.
package play

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casefiles/interrogation/internal/client/chain"
	"github.com/casefiles/interrogation/internal/client/player"
	"github.com/casefiles/interrogation/internal/client/rest"
	entrypoint "github.com/casefiles/interrogation/internal/platform/cmd"
)

// Config holds play command configuration.
type Config struct {
	ServerURL  string `env:"INTERROGATION_SERVER_URL" envDefault:"http://localhost:3001"`
	PlayerID   string `env:"INTERROGATION_PLAYER_ID"`
	GatewayURL string `env:"INTERROGATION_CHAIN_RPC_URL"`
}

// Execute runs the play CLI.
func Execute() error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	return newRootCmd(cfg).Execute()
}

func newRootCmd(cfg Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "play",
		Short:         "Interrogate suspects and solve the case from the terminal",
		Long:          "play is the client for the interrogation game engine: start a session, question the suspects, and accuse the one you believe is guilty.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "engine base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "player identity")
	rootCmd.PersistentFlags().StringVar(&cfg.GatewayURL, "gateway", cfg.GatewayURL, "ledger gateway RPC URL")

	rootCmd.AddCommand(
		newStartCmd(&cfg),
		newAskCmd(&cfg),
		newAccuseCmd(&cfg),
		newSuspectsCmd(&cfg),
		newCaseCmd(&cfg),
		newStatsCmd(&cfg),
		newRankingCmd(&cfg),
	)
	return rootCmd
}

func newGameClient(cfg *Config) (*player.Client, error) {
	restClient, err := rest.NewClient(cfg.ServerURL, nil)
	if err != nil {
		return nil, err
	}
	playerCfg := player.Config{
		Rest:     restClient,
		PlayerID: cfg.PlayerID,
	}
	if strings.TrimSpace(cfg.GatewayURL) != "" {
		playerCfg.Prober = chain.NewProber(cfg.GatewayURL, nil)
	}
	return player.New(playerCfg)
}

func newStartCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new investigation session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newGameClient(cfg)
			if err != nil {
				return err
			}
			gameID, err := client.StartSession(cmd.Context())
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("The investigation begins."))
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s\n", accentStyle.Render(gameID))
			fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render("Question the suspects with: play ask <suspect-id> <question> --game "+gameID))
			return nil
		},
	}
}

func newAskCmd(cfg *Config) *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "ask <suspect-id> <question>",
		Short: "Put a question to a suspect",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			suspectID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("suspect id must be a number: %q", args[0])
			}
			question := strings.Join(args[1:], " ")

			client, err := newGameClient(cfg)
			if err != nil {
				return err
			}
			reply, err := client.Interrogate(cmd.Context(), suspectID, question, gameID)
			if err != nil {
				return fmt.Errorf("interrogate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), replyStyle.Render(reply))
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "session id from play start")
	return cmd
}

func newAccuseCmd(cfg *Config) *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "accuse <suspect-id>",
		Short: "Accuse a suspect of the murder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suspectID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("suspect id must be a number: %q", args[0])
			}

			client, err := newGameClient(cfg)
			if err != nil {
				return err
			}
			correct, err := client.Accuse(cmd.Context(), gameID, suspectID)
			if err != nil {
				return fmt.Errorf("accuse: %w", err)
			}
			if correct {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Case closed. You caught the murderer."))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), failureStyle.Render("Wrong suspect. The murderer is still out there."))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "session id from play start")
	return cmd
}

func newSuspectsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "suspects",
		Short: "List the suspects in the case",
		RunE: func(cmd *cobra.Command, args []string) error {
			restClient, err := rest.NewClient(cfg.ServerURL, nil)
			if err != nil {
				return err
			}
			suspects, err := restClient.Characters(cmd.Context())
			if err != nil {
				return fmt.Errorf("list suspects: %w", err)
			}
			for _, s := range suspects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %s\n", accentStyle.Render(fmt.Sprintf("[%d]", s.ID)), titleStyle.Render(s.Name), s.Role)
				fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render("    "+s.Description))
			}
			return nil
		},
	}
}

func newCaseCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "case",
		Short: "Show the case file",
		RunE: func(cmd *cobra.Command, args []string) error {
			restClient, err := rest.NewClient(cfg.ServerURL, nil)
			if err != nil {
				return err
			}
			detail, err := restClient.CaseDetail(cmd.Context(), 1, cfg.PlayerID)
			if err != nil {
				return fmt.Errorf("load case: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(detail.Title))
			fmt.Fprintln(out, detail.Description)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Victim:"), detail.Victim)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Location:"), detail.Location)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Time:"), detail.Time)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Weapon:"), detail.Weapon)
			fmt.Fprintf(out, "%s %s (%s)\n", labelStyle.Render("Difficulty:"), detail.Difficulty, detail.EstimatedTime)
			return nil
		},
	}
}

func newStatsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show global game statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			restClient, err := rest.NewClient(cfg.ServerURL, nil)
			if err != nil {
				return err
			}
			stats, err := restClient.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Attempts:"), stats.TotalAttempts)
			fmt.Fprintf(out, "%s %d (%d unique)\n", labelStyle.Render("Completions:"), stats.TotalCompletions, stats.UniqueCompletions)
			fmt.Fprintf(out, "%s %.1f%%\n", labelStyle.Render("Success rate:"), stats.SuccessRate)
			for _, completion := range stats.RecentCompletions {
				fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("  #%d %s", completion.CompletionNumber, completion.PlayerID)))
			}
			return nil
		},
	}
}

func newRankingCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ranking",
		Short: "Show your leaderboard position",
		RunE: func(cmd *cobra.Command, args []string) error {
			restClient, err := rest.NewClient(cfg.ServerURL, nil)
			if err != nil {
				return err
			}
			ranking, err := restClient.Ranking(cmd.Context(), cfg.PlayerID)
			if err != nil {
				return fmt.Errorf("load ranking: %w", err)
			}
			out := cmd.OutOrStdout()
			if !ranking.HasCompleted {
				fmt.Fprintln(out, hintStyle.Render("You have not solved the case yet."))
				fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Detectives who have:"), ranking.TotalCompletions)
				return nil
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("You were detective #%d of %d to close the case.", ranking.PlayerRanking, ranking.TotalCompletions)))
			return nil
		},
	}
}
