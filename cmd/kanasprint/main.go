// Package main provides the CLI entrypoint for kanasprint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ryotaka/kanasprint/internal/board"
	"github.com/ryotaka/kanasprint/internal/boardsui"
	"github.com/ryotaka/kanasprint/internal/config"
	"github.com/ryotaka/kanasprint/internal/corpus"
	"github.com/ryotaka/kanasprint/internal/game"
	"github.com/ryotaka/kanasprint/internal/model"
	"github.com/ryotaka/kanasprint/internal/report"
	"github.com/ryotaka/kanasprint/internal/store"
	"github.com/ryotaka/kanasprint/internal/tui"
)

const (
	defaultPlayer     = "anonymous"
	defaultDifficulty = "all"
	defaultCooldownS  = 15
	defaultLast       = 50
	defaultCurveWin   = 10
)

var (
	playCorpus     string
	playPlayer     string
	playDifficulty string
	playCategory   string
	playTheme      string
	playDaily      bool
	playCooldownS  int

	boardsDifficulty string
	boardsCategory   string
	boardsTheme      string
	boardsDaily      bool
	boardsPlain      bool

	historyPlayer      string
	historyLast        int
	historyCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kanasprint",
		Short:         "Timed transcription trainer with ranked leaderboards",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playCorpus, "corpus", "", "passage corpus path (default: XDG config dir)")
	rootCmd.Flags().StringVar(&playPlayer, "player", defaultPlayer, "display name on leaderboards")
	rootCmd.Flags().StringVar(&playDifficulty, "difficulty", defaultDifficulty, "difficulty filter (all/easy/normal/hard)")
	rootCmd.Flags().StringVar(&playCategory, "category", "", "category filter")
	rootCmd.Flags().StringVar(&playTheme, "theme", "", "theme filter")
	rootCmd.Flags().BoolVar(&playDaily, "daily", false, "play the theme of the day")
	rootCmd.Flags().IntVar(&playCooldownS, "cooldown", defaultCooldownS, "seconds between saved completions")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newBoardsCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "corpus", &playCorpus, fileCfg.Play.Corpus)
	applyStringConfig(cmd, "player", &playPlayer, fileCfg.Play.Player)
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Play.Difficulty)
	applyStringConfig(cmd, "category", &playCategory, fileCfg.Play.Category)
	applyStringConfig(cmd, "theme", &playTheme, fileCfg.Play.Theme)
	applyBoolConfig(cmd, "daily", &playDaily, fileCfg.Play.Daily)
	applyIntConfig(cmd, "cooldown", &playCooldownS, fileCfg.Play.CooldownS)

	cfg := model.Config{
		CorpusPath: playCorpus,
		Player:     playPlayer,
		Difficulty: model.Difficulty(playDifficulty),
		Category:   playCategory,
		Theme:      playTheme,
		Daily:      playDaily,
		Cooldown:   time.Duration(playCooldownS) * time.Second,
	}
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = config.DefaultCorpusPath()
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	passages, err := corpus.LoadFile(cfg.CorpusPath)
	if err != nil {
		return corpusLoadError(cfg.CorpusPath, err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	// The actor id becomes available before any write is permitted.
	actorID, err := st.EnsureProfile(context.Background(), cfg.Player)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}

	g := game.New(passages, st, cfg.Player, actorID, cfg.Cooldown, nil)
	g.SetDifficulty(cfg.Difficulty)
	g.SetCategory(cfg.Category)
	g.SetTheme(cfg.Theme)
	if cfg.Daily {
		g.SetDailyActive(true)
	}

	playModel := tui.NewModel(g)
	program := tea.NewProgram(playModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newBoardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "Browse leaderboards",
		RunE:  runBoardsCmd,
	}
	cmd.Flags().StringVar(&boardsDifficulty, "difficulty", defaultDifficulty, "difficulty filter (all/easy/normal/hard)")
	cmd.Flags().StringVar(&boardsCategory, "category", "", "category filter")
	cmd.Flags().StringVar(&boardsTheme, "theme", "", "theme filter")
	cmd.Flags().BoolVar(&boardsDaily, "daily", false, "use the theme of the day for the daily board")
	cmd.Flags().BoolVar(&boardsPlain, "plain", false, "print tables instead of the interactive browser")
	return cmd
}

func runBoardsCmd(cmd *cobra.Command, _ []string) error {
	if err := validateDifficulty(boardsDifficulty); err != nil {
		return err
	}
	fc := model.FilterContext{
		Difficulty: model.Difficulty(boardsDifficulty),
		Category:   boardsCategory,
		Theme:      boardsTheme,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if boardsDaily {
		// Resolving the theme of the day needs the corpus theme set.
		corpusPath := playCorpus
		if corpusPath == "" {
			corpusPath = config.DefaultCorpusPath()
		}
		if passages, err := corpus.LoadFile(corpusPath); err == nil {
			fc.DailyActive = true
			fc.DailyTheme = dailyThemeForToday(passages)
		} else {
			logErrf("failed to load corpus for daily theme: %v\n", err)
		}
	}

	if boardsPlain {
		return printBoards(cmd, st, fc)
	}
	browser := boardsui.NewModel(st, fc)
	program := tea.NewProgram(browser, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run boards TUI: %w", err)
	}
	return nil
}

func printBoards(cmd *cobra.Command, st *store.Store, fc model.FilterContext) error {
	ctx := context.Background()
	date := time.Now().Format(board.DateFormat)
	for _, scope := range model.Scopes {
		key := board.Key(scope, fc, date)
		entries, err := st.TopEntries(ctx, key, store.TopLimit)
		if err != nil {
			// A failed read degrades this view only.
			logErrf("failed to load %s board: %v\n", scope, err)
			continue
		}
		title := fmt.Sprintf("%s (%s)", titleCase(string(scope)), key)
		if err := report.RenderBoard(cmd.OutOrStdout(), title, entries); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rounds",
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyPlayer, "player", defaultPlayer, "display name to look up")
	cmd.Flags().IntVar(&historyLast, "last", defaultLast, "limit to last N rounds")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWin, "moving average window")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "player", &historyPlayer, fileCfg.Play.Player)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	actorID, err := st.EnsureProfile(ctx, historyPlayer)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	entries, err := st.ListHistory(ctx, actorID, historyLast)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 12 && len(entries) > width-12 {
		// Keep the sparkline on one terminal line.
		entries = entries[:width-12]
	}
	if err := report.RenderHistory(cmd.OutOrStdout(), entries, historyCurveWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func dailyThemeForToday(c *corpus.Corpus) string {
	return board.DailyTheme(time.Now().Format(board.DateFormat), c.Themes())
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kanasprint configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# corpus = ""             # Passage corpus path (default: %s)
# player = %q             # Display name on leaderboards
# difficulty = %q         # Difficulty filter (all/easy/normal/hard)
# category = ""           # Category filter
# theme = ""              # Theme filter
# daily = false           # Play the theme of the day
# cooldown-seconds = %d   # Seconds between saved completions
`,
		config.DefaultCorpusPath(),
		defaultPlayer,
		defaultDifficulty,
		defaultCooldownS,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Player) == "" {
		return fmt.Errorf("--player must not be empty")
	}
	if err := validateDifficulty(string(cfg.Difficulty)); err != nil {
		return err
	}
	if cfg.Cooldown < 0 {
		return fmt.Errorf("--cooldown must be >= 0")
	}
	return nil
}

func validateDifficulty(value string) error {
	switch model.Difficulty(value) {
	case model.DifficultyAll, model.DifficultyEasy, model.DifficultyNormal, model.DifficultyHard:
		return nil
	default:
		return fmt.Errorf("--difficulty must be one of all, easy, normal, hard")
	}
}

func corpusLoadError(path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load corpus: %v", err),
		fmt.Sprintf("expected corpus at: %s", path),
		"Create a TOML corpus with [[passages]] entries, each with a text field.",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	// Best-effort logging to stderr.
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
