package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"carsales/internal/config"
	"carsales/internal/domain"
	"carsales/internal/factory"
	"carsales/internal/httpapi"
	"carsales/internal/logging"
	"carsales/internal/tui"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "assistant",
		Usage: "Mr.Isuzu sales assistant for the car catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default ./config.yaml or ~/.config/carsales/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the config",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Start the interactive assistant",
				Action: chatCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question and exit",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the assistant over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides server.addr",
					},
				},
			},
		},
	}
}

// loadConfig reads --config, or the default locations when it is not set.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if p := c.String("config"); p != "" {
		return config.Load(p)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func logLevel(c *cli.Context, cfg *config.AppConfig) string {
	if l := c.String("log-level"); l != "" {
		return l
	}
	return cfg.Log.Level
}

func setupLogger(c *cli.Context) error {
	_, err := logging.Setup(c.String("log-level"), "", os.Stderr)
	return err
}

func chatCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// keep the terminal for the UI
	closer, err := logging.Setup(logLevel(c, cfg), cfg.Log.File, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := c.Context
	app, err := factory.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start assistant: %w", err)
	}
	defer app.Close()

	model := tui.New(ctx, app.Assistant, app.Assets, cfg.Assets.DownloadDir)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return cli.ShowSubcommandHelp(c)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := logging.Setup(logLevel(c, cfg), "", os.Stderr); err != nil {
		return err
	}

	ctx := c.Context
	app, err := factory.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start assistant: %w", err)
	}
	defer app.Close()

	ans, err := app.Assistant.Ask(ctx, question)
	if err != nil {
		return err
	}
	printAnswer(c.App.Writer, ans)
	return nil
}

func printAnswer(w io.Writer, ans domain.Answer) {
	fmt.Fprintln(w, ans.Text)
	if len(ans.Matches) == 0 {
		fmt.Fprintln(w, "\nPertanyaan Anda belum cocok dengan data teknis yang tersedia.")
		return
	}
	fmt.Fprintln(w, "\nDetail Mobil yang Ditemukan:")
	for _, m := range ans.Matches {
		if m.Scored {
			fmt.Fprintf(w, "- %s (Skor Kecocokan: %.4f)\n", m.Car.Name, m.Score)
		} else {
			fmt.Fprintf(w, "- %s\n", m.Car.Name)
		}
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := logging.Setup(logLevel(c, cfg), "", os.Stderr); err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start assistant: %w", err)
	}
	defer app.Close()

	server := httpapi.NewServer(addr, app.Assistant, app.Assets)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("start http server", "addr", addr)
		if err := server.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown http server gracefully", "err", err)
	}
	return nil
}
