package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"contest_arena/internal/app/service"
	"contest_arena/internal/app/wiring"
	"contest_arena/internal/common/security"
	"contest_arena/internal/platform/cache"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/database"
	"contest_arena/internal/platform/logger"
	"contest_arena/migrations"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "arenactl",
		Short: "Administrative tasks for the contest arena",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.Load()
			logger.Init(config.AppConfig.Environment)
			security.InitJWT()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.Connect()
			defer database.Close()

			ran, err := database.RunMigrations(cmd.Context(), database.DB, migrations.FS)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d migration(s)\n", len(ran))
			for _, name := range ran {
				fmt.Println("  " + name)
			}
			return nil
		},
	}

	var createReq service.CreateUserRequest
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	userCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print an access token for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services(false)
			defer database.Close()

			user, err := svc.Users.CreateUser(cmd.Context(), createReq)
			if err != nil {
				return err
			}
			token, err := svc.Users.IssueToken(cmd.Context(), user.Username)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s user %s (%s)\n", user.Role, user.Username, user.ID)
			fmt.Println(token)
			return nil
		},
	}
	userCreateCmd.Flags().StringVar(&createReq.Username, "username", "", "Unique username")
	userCreateCmd.Flags().StringVar(&createReq.Email, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&createReq.DisplayName, "display-name", "", "Display name (defaults to username)")
	userCreateCmd.Flags().StringVar(&createReq.AvatarURL, "avatar-url", "", "Avatar URL")
	userCreateCmd.Flags().StringVar(&createReq.Role, "role", "user", "Role: user or admin")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")

	tokenCmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue an access token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services(false)
			defer database.Close()

			token, err := svc.Users.IssueToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	contestCmd := &cobra.Command{
		Use:   "contest",
		Short: "Contest maintenance",
	}
	rescoreCmd := &cobra.Command{
		Use:   "rescore <contest-id>",
		Short: "Recompute every leaderboard score of a contest from its slot state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Ledger locks must be shared with running servers.
			svc := services(true)
			defer database.Close()
			defer cache.CloseRedis()

			updated, err := svc.Contests.Rescore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Rescored contest %s: %d entries changed\n", args[0], updated)
			return nil
		},
	}

	var jsonOutput bool
	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the global leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services(false)
			defer database.Close()

			entries, err := svc.Leaderboard.Global(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tSOLVED")
			for _, e := range entries {
				name := e.UserID
				if e.Profile != nil {
					name = e.Profile.Username
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", e.Rank, name, e.Score, e.ProblemsSolved)
			}
			return tw.Flush()
		},
	}
	leaderboardCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	userCmd.AddCommand(userCreateCmd)
	contestCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(migrateCmd, userCmd, tokenCmd, contestCmd, leaderboardCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// services connects to Postgres, and to Redis when withRedis is set, and builds the service set.
func services(withRedis bool) *wiring.Services {
	database.Connect()
	var rdb *redis.Client
	if withRedis {
		cache.ConnectRedis()
		rdb = cache.RDB
	}
	return wiring.NewServices(config.AppConfig, database.DB, rdb, nil)
}
