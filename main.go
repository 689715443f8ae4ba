package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/robalobadob/boggle/assets"
	"github.com/robalobadob/boggle/internal/auth"
	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/db"
	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/httpserver"
	"github.com/robalobadob/boggle/internal/solver"
	"github.com/robalobadob/boggle/internal/store"
	"github.com/robalobadob/boggle/internal/trie"
	"github.com/robalobadob/boggle/internal/words"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "boggle",
		Usage: "Boggle word-search server",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "dictionary", Usage: "word list, one word per line", Sources: cli.EnvVars("DICTIONARY_FILE")},
		}, serveFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if lvl, err := zerolog.ParseLevel(cmd.String("log-level")); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			if p := cmd.String("dictionary"); p != "" {
				_ = os.Setenv("DICTIONARY_FILE", p)
			}
			if err := words.Init(); err != nil {
				return ctx, fmt.Errorf("load dictionary: %w", err)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{serveCommand(), solveCommand()},
		Action:   serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("boggle exited")
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Value: "5175", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "db", Value: filepath.Join("data", "boggle.db"), Sources: cli.EnvVars("DB_PATH")},
		&cli.StringFlag{Name: "jwt-secret", Sources: cli.EnvVars("JWT_SECRET")},
		&cli.StringFlag{Name: "daily-salt", Value: "local_dev_salt", Sources: cli.EnvVars("DAILY_SALT")},
		&cli.StringFlag{Name: "client-origin", Value: "http://localhost:5173", Sources: cli.EnvVars("CLIENT_ORIGIN")},
		&cli.BoolFlag{Name: "secure-cookies", Sources: cli.EnvVars("SECURE_COOKIES")},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP server (default)",
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("jwt-secret") == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}

	conn, err := db.Open(cmd.String("db"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	dict := trie.Shared()
	seeds, err := challenge.EmbeddedSeeds()
	if err != nil {
		return err
	}
	n, err := challenge.Seed(ctx, challenge.NewStore(conn), seeds, dict, 4)
	if err != nil {
		return fmt.Errorf("seed challenges: %w", err)
	}
	log.Info().Int("words", dict.Len()).Int("seeded", n).Msg("dictionary ready")

	sessions := store.NewMemoryStore()
	srv := httpserver.New(httpserver.Config{
		Auth: auth.Config{
			Secret: cmd.String("jwt-secret"),
			Secure: cmd.Bool("secure-cookies"),
		},
		ClientOrigin: cmd.String("client-origin"),
		DailySalt:    cmd.String("daily-salt"),
	}, dict, sessions, conn)
	defer srv.Close()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(":" + cmd.String("port")) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		return nil
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "print every dictionary word on a grid",
		ArgsUsage: "ROW [ROW...]   e.g. solve CATS OGET DONA BIRD",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g := grid.Normalize(cmd.Args().Slice())
			if g.Empty() {
				return fmt.Errorf("no grid rows given")
			}
			found, err := solver.Solve(ctx, g, trie.Shared())
			if err != nil {
				return err
			}
			fmt.Println(g)
			for _, w := range found.Sorted() {
				fmt.Println(w)
			}
			log.Info().Int("words", found.Len()).Msg("solved")
			return nil
		},
	}
}
