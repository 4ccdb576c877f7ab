package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/config"
	"github.com/verte-zerg/molishai/internal/corpus"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/model"
	"github.com/verte-zerg/molishai/internal/modelfile"
	"github.com/verte-zerg/molishai/internal/stats"
	"github.com/verte-zerg/molishai/internal/statsui"
	"github.com/verte-zerg/molishai/internal/store"
	"github.com/verte-zerg/molishai/internal/train"
	"github.com/verte-zerg/molishai/internal/wordfreq"
)

const (
	defaultCurveWindow = 20
	defaultTrainLimit  = 10000
	minTrainWordLength = 2
)

var (
	decodeHex   string
	decodeBits  int
	decodeModel string

	checkModel string

	trainCorpus   string
	trainWords    string
	trainWordfreq string
	trainOrder    int
	trainLimit    int
	trainOut      string

	statsModelName   string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsInteractive bool
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Rebuild a password from its hex bits",
		Args:  cobra.NoArgs,
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeHex, "hex", "", "hex string shown next to the password")
	cmd.Flags().IntVar(&decodeBits, "bits", 0, "number of bits (default: 4 per hex digit)")
	cmd.Flags().StringVar(&decodeModel, "model", "", "model file (default: built-in reference model)")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, _ []string) error {
	decodeHex = strings.TrimSpace(decodeHex)
	n := decodeBits
	if !cmd.Flags().Changed("bits") {
		n = len(decodeHex) * 4
	}
	if err := config.CheckBits(n); err != nil {
		return err
	}
	in, err := bits.FromHex(decodeHex, n)
	if err != nil {
		return fmt.Errorf("invalid --hex value: %w", err)
	}
	defer in.Wipe()
	m, err := modelfile.Load(decodeModel)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	seq, err := markov.Generate(m, in)
	if err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return writeBreakdown(cmd.OutOrStdout(), seq)
}

// writeBreakdown prints the password followed by each symbol and the bits it
// consumed.
func writeBreakdown(w io.Writer, seq []markov.Symbol) error {
	lines := []string{
		fmt.Sprintf("password: %q", markov.Assemble(seq)),
		fmt.Sprintf("entropy: %d bits", markov.Entropy(seq)),
		"",
		"  # symbol bits",
	}
	for i, s := range seq {
		lines = append(lines, fmt.Sprintf("%3d %6q %4d", i+1, s.Text, s.Bits))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a model file",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkModel, "model", "", "model file (default: built-in reference model)")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	m, err := modelfile.Load(checkModel)
	if err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}
	return writeSummary(cmd.OutOrStdout(), modelName(checkModel), m.Summary())
}

func writeSummary(w io.Writer, name string, s markov.Summary) error {
	lines := []string{
		fmt.Sprintf("model: %s", name),
		fmt.Sprintf("order: %d", s.Order),
		fmt.Sprintf("states: %d", s.States),
		fmt.Sprintf("seed leaves: %d (depth %d)", s.SeedLeaves, s.SeedDepth),
		fmt.Sprintf("max transition depth: %d", s.MaxTransitionDepth),
		fmt.Sprintf("zero-bit states: %d", s.ZeroBitStates),
		"ok",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from text or word frequencies",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	cmd.Flags().StringVar(&trainCorpus, "corpus", "", "plain text corpus file")
	cmd.Flags().StringVar(&trainWords, "words", "", "word list file (\"word [weight]\" per line)")
	cmd.Flags().StringVar(&trainWordfreq, "wordfreq", "", "wordfreq language code (downloads the dataset)")
	cmd.Flags().IntVar(&trainOrder, "order", train.DefaultOrder, "state width in characters")
	cmd.Flags().IntVar(&trainLimit, "limit", defaultTrainLimit, "most frequent words to use with --wordfreq")
	cmd.Flags().StringVar(&trainOut, "out", "", "output model file (default: models dir)")
	cmd.MarkFlagsMutuallyExclusive("corpus", "words", "wordfreq")
	cmd.MarkFlagsOneRequired("corpus", "words", "wordfreq")
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	if trainOrder < 1 {
		return fmt.Errorf("--order must be >= 1")
	}
	out := trainOut
	if out == "" {
		out = filepath.Join(config.DefaultModelDir(), trainOutputName()+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	var (
		m   *markov.Model
		err error
	)
	switch {
	case trainCorpus != "":
		var text string
		text, err = corpus.Load(trainCorpus)
		if err != nil {
			return fmt.Errorf("failed to load corpus: %w", err)
		}
		m, err = train.Train(text, trainOrder)
	case trainWords != "":
		var words []corpus.Word
		words, err = corpus.LoadWords(trainWords)
		if err != nil {
			return fmt.Errorf("failed to load words: %w", err)
		}
		m, err = train.TrainWeighted(words, trainOrder)
	default:
		m, err = trainFromWordfreq(cmd, out)
	}
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}
	if err := modelfile.Save(out, m); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	s := m.Summary()
	logErrf("Wrote %s (%d states, %d seed leaves)\n", out, s.States, s.SeedLeaves)
	return nil
}

func trainOutputName() string {
	switch {
	case trainWordfreq != "":
		return "wordfreq-" + trainWordfreq
	case trainWords != "":
		return modelName(trainWords)
	default:
		return modelName(trainCorpus)
	}
}

func trainFromWordfreq(cmd *cobra.Command, out string) (*markov.Model, error) {
	logErrln("Fetching wordfreq metadata...")
	wheel, err := wordfreq.DownloadLatestWheel(cmd.Context(), config.DefaultWordfreqCacheDir())
	if err != nil {
		return nil, fmt.Errorf("failed to download wordfreq wheel: %w", err)
	}
	if wheel.Cached {
		logErrf("Using cached wheel %s\n", wheel.Filename)
	} else {
		logErrf("Downloaded wheel %s\n", wheel.Filename)
	}
	langs, err := wordfreq.Languages(wheel.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	if !slices.Contains(langs, trainWordfreq) {
		return nil, fmt.Errorf("unknown language %q (available: %v)", trainWordfreq, langs)
	}
	entries, err := wordfreq.ReadEntries(wheel.Path, trainWordfreq)
	if err != nil {
		return nil, err
	}
	words, err := wordfreq.Words(entries, corpus.MinLength(minTrainWordLength, corpus.InAlphabet), trainLimit)
	if err != nil {
		return nil, err
	}
	m, err := train.TrainWeighted(words, trainOrder)
	if err != nil {
		return nil, err
	}
	attribution := out + ".ATTRIBUTION.txt"
	if err := wordfreq.WriteAttribution(attribution, wheel, trainWordfreq); err != nil {
		return nil, err
	}
	logErrf("Wrote %s\n", attribution)
	return m, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the generation audit log",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsModelName, "model-name", "", "model name filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N generations")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVarP(&statsInteractive, "interactive", "i", false, "open the interactive browser")
	cmd.Flags().StringVar(&genDB, "db", config.DefaultDBPath(), "audit database path")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &genDB, fileCfg.Generate.DB)

	st, err := store.Open(genDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsInteractive {
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}
	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return stats.Render(cmd.OutOrStdout(), report, 0)
}

func statsConfig() (model.StatsConfig, error) {
	var since *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		since = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		ModelName:   statsModelName,
		Since:       since,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}
