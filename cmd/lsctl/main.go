// Command lsctl is a dev CLI for leadscout maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"

	"github.com/ibeckermayer/leadscout/internal/auth"
	browseropts "github.com/ibeckermayer/leadscout/internal/browser"
	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/intent"
	"github.com/ibeckermayer/leadscout/internal/logging"
	"github.com/ibeckermayer/leadscout/internal/store"
)

func main() {
	logging.Init(os.Getenv("LEADSCOUT_LOG_LEVEL"))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "bot-test":
		err = runBotTest()
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: lsctl open <config|cache>")
			os.Exit(1)
		}
		err = runOpen(os.Args[2])
	case "score":
		if len(os.Args) < 3 {
			fmt.Println("Usage: lsctl score <text>")
			os.Exit(1)
		}
		runScore(strings.Join(os.Args[2:], " "))
	case "login":
		err = runLogin()
	case "runs":
		err = runRuns()
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: lsctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test       Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config    Open config file in default editor")
	fmt.Println("  open cache     Open cache directory in file explorer")
	fmt.Println("  score <text>   Print the intent score and tone of text")
	fmt.Println("  login          Log in to Reddit in a visible browser and store cookies")
	fmt.Println("  runs           List the most recent promotion runs")
}

func runBotTest() error {
	slog.Info("Opening bot.sannysoft.com with stealth browser options...")

	opts := browseropts.Options(false, "") // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate("https://bot.sannysoft.com"),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()

	slog.Info("Done.")
	return nil
}

func runOpen(target string) error {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "cache":
		path, err = config.CacheDir()
	default:
		return fmt.Errorf("unknown target: %s", target)
	}
	if err != nil {
		return fmt.Errorf("get path: %w", err)
	}

	return browser.OpenFile(path)
}

func runScore(text string) {
	score := intent.Score(text)
	fmt.Printf("score:    %d\n", score.Value)
	fmt.Printf("fallback: %d\n", intent.ScoreUnscreened(text).Value)
	fmt.Printf("question: %s\n", score.ExtractedQuestion)
	fmt.Printf("tone:     %s\n", intent.Tone(text))
}

func runLogin() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cookiePath, err := auth.DefaultCookieStorePath()
	if err != nil {
		return err
	}

	manager := auth.NewManager(
		auth.NewRedditCookieStore(cookiePath),
		filepath.Join(configDir, "browser-profile"),
		cfg.Platform.LoginTimeout.Duration,
	)
	if manager.IsAuthenticated() {
		slog.Info("Stored Reddit session is still valid", "path", cookiePath)
		return nil
	}
	if err := manager.Login(context.Background()); err != nil {
		return err
	}
	slog.Info("Login successful - cookies saved", "path", cookiePath)
	return nil
}

func runRuns() error {
	path, err := store.DefaultPath()
	if err != nil {
		return err
	}
	s, err := store.New(path)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.RecentRuns(context.Background(), 10)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-8s  %3d leads  %d/%d posted  %s\n",
			r.StartedAt.Format(time.DateTime), r.FinalState, len(r.Leads), r.Succeeded, r.Attempted, r.ProductDesc)
	}
	return nil
}
