// Package main provides the sftlabel CLI.
//
// sftlabel turns JSON lines of {"question", "answer"} pairs into supervised
// fine-tuning examples and reports how many answers could not be labeled.
// Other row layouts are selected with --question-field and --answer-field.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/born-ml/sft/internal/align"
	"github.com/born-ml/sft/internal/batch"
	"github.com/born-ml/sft/internal/config"
	"github.com/born-ml/sft/internal/logging"
	"github.com/born-ml/sft/internal/parallel"
	"github.com/born-ml/sft/internal/serialization"
	"github.com/born-ml/sft/internal/tokenizer"
)

const version = "v0.1.0-dev"

// Exit codes.
const (
	exitOK = iota
	exitError
	exitUsage
	exitRate
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "sftlabel %s\n", version)
		return exitOK
	case "encode":
		return runEncode(ctx, args[1:], stdin, stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "sftlabel - supervised fine-tuning label builder")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  encode     Encode JSONL pairs into labeled examples (.jsonl or .safetensors)")
	fmt.Fprintln(w, "  inspect    Print the header of a .safetensors batch")
}

// record is one line of JSONL output.
type record struct {
	align.EncodedExample
	Status string `json:"status"`
}

func runEncode(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.StringP("in", "i", "-", "input JSONL file of {question, answer} pairs, - for stdin")
	out := fs.StringP("out", "o", "-", "output file; .safetensors selects SafeTensors, anything else JSONL")
	configPath := fs.StringP("config", "c", "", "config file (default ./sftlabel.yaml or ~/.config/sftlabel/sftlabel.yaml)")
	dropUnsupervised := fs.Bool("drop-unsupervised", false, "omit examples without labels from the output")
	fs.Int("max-length", align.DefaultMaxLength, "sequence length")
	fs.String("tokenizer", string(tokenizer.KindAuto), "tokenizer kind: auto, tiktoken, hf, bpe")
	fs.String("source", "cl100k_base", "tokenizer source: encoding, model name, directory or tokenizer.json")
	fs.Int("workers", 0, "encoding workers (default NumCPU)")
	fs.Float64("max-unsupervised-rate", 0.05, "fail when more than this share of examples has no labels")
	fs.String("question-field", "question", "input field holding the question; a number selects a column of array rows")
	fs.String("answer-field", "answer", "input field holding the answer; a number selects a column of array rows")
	fs.String("log-level", "info", "log level")
	fs.Bool("pretty", false, "human readable logs")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	v := viper.New()
	for key, name := range map[string]string{
		"encoder.maxLength":         "max-length",
		"tokenizer.kind":            "tokenizer",
		"tokenizer.source":          "source",
		"batch.workers":             "workers",
		"batch.maxUnsupervisedRate": "max-unsupervised-rate",
		"input.questionField":       "question-field",
		"input.answerField":         "answer-field",
		"log.level":                 "log-level",
		"log.pretty":                "pretty",
	} {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			fmt.Fprintf(stderr, "failed to bind flag %s: %v\n", name, err)
			return exitError
		}
	}

	cfg, err := config.LoadWith(v, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitError
	}

	log := logging.New(stderr, cfg.Log.Level, cfg.Log.Pretty)
	defer logging.RedirectStdLog(log, zerolog.DebugLevel)()

	if err := encode(ctx, cfg, log, *in, *out, *dropUnsupervised, stdin, stdout); err != nil {
		var rateErr *batch.RateError
		if errors.As(err, &rateErr) {
			log.Error().Err(err).Msg("too many unsupervised examples")
			return exitRate
		}
		log.Error().Err(err).Msg("encode failed")
		return exitError
	}

	return exitOK
}

// encode runs the pipeline. A *batch.RateError is returned after the output
// has been written.
func encode(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	in, out string,
	dropUnsupervised bool,
	stdin io.Reader,
	stdout io.Writer,
) error {
	tok, err := tokenizer.Load(tokenizer.Kind(cfg.Tokenizer.Kind), cfg.Tokenizer.Source)
	if err != nil {
		return fmt.Errorf("failed to load tokenizer: %w", err)
	}
	log.Info().
		Str("kind", cfg.Tokenizer.Kind).
		Str("source", cfg.Tokenizer.Source).
		Int("vocab_size", tok.VocabSize()).
		Msg("tokenizer loaded")

	enc, err := align.NewEncoder(tok, cfg.AlignConfig())
	if err != nil {
		return err
	}

	pairs, err := readPairs(in, stdin, batch.FormatterFor(cfg.Input.QuestionField, cfg.Input.AnswerField))
	if err != nil {
		return err
	}

	opts := batch.DefaultOptions()
	opts.Parallel = parallel.DefaultConfig().WithWorkers(cfg.Batch.Workers)
	opts.MaxUnsupervisedRate = cfg.Batch.MaxUnsupervisedRate
	opts.Logger = log

	builder, err := batch.NewBuilder(enc, opts)
	if err != nil {
		return err
	}

	b, rateErr := builder.Encode(ctx, pairs)
	if b == nil {
		return rateErr
	}

	if err := writeBatch(out, b, cfg, dropUnsupervised, stdout); err != nil {
		return err
	}

	// Stdout carries the examples when no output file is given.
	if out != "-" {
		summary := struct {
			RunID string `json:"run_id"`
			batch.Snapshot
			Rate float64 `json:"unsupervised_rate"`
		}{b.RunID.String(), b.Stats, b.Stats.Rate()}
		if err := json.NewEncoder(stdout).Encode(summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	return rateErr
}

func readPairs(in string, stdin io.Reader, format batch.Formatter) ([]batch.Pair, error) {
	r := stdin
	if in != "-" {
		file, err := os.Open(in) //nolint:gosec // G304: input path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer file.Close()
		r = file
	}

	rows, err := serialization.ReadJSONL[json.RawMessage](r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs: %w", err)
	}

	pairs, err := batch.Format(rows, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs: %w", err)
	}
	return pairs, nil
}

func writeBatch(out string, b *batch.Batch, cfg *config.Config, dropUnsupervised bool, stdout io.Writer) error {
	if strings.EqualFold(filepath.Ext(out), ".safetensors") {
		examples := b.Examples()
		if dropUnsupervised {
			examples = b.Supervised()
		}
		return serialization.WriteBatch(out, examples, map[string]string{
			"run_id":       b.RunID.String(),
			"ignore_index": strconv.Itoa(int(cfg.Encoder.IgnoreIndex)),
			"tokenizer":    cfg.Tokenizer.Source,
		})
	}

	records := make([]record, 0, len(b.Results))
	for _, res := range b.Results {
		if dropUnsupervised && !res.Supervised() {
			continue
		}
		records = append(records, record{EncodedExample: res.Example, Status: res.Status.String()})
	}

	if out == "-" {
		return serialization.WriteJSONL(stdout, records)
	}

	file, err := os.Create(out) //nolint:gosec // G304: output path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := serialization.WriteJSONL(file, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.StringP("in", "i", "", "SafeTensors batch file")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *in == "" && fs.NArg() > 0 {
		*in = fs.Arg(0)
	}
	if *in == "" {
		fmt.Fprintln(stderr, "inspect: no input file")
		return exitUsage
	}

	h, err := serialization.ReadHeader(*in)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read header: %v\n", err)
		return exitError
	}

	n, length := h.Shape()
	fmt.Fprintf(stdout, "examples: %d\nlength: %d\n", n, length)

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(stdout, "%s: %s\n", k, h.Metadata[k])
	}

	tensors, err := json.Marshal(h.Tensors)
	if err != nil {
		fmt.Fprintf(stderr, "failed to format tensors: %v\n", err)
		return exitError
	}
	fmt.Fprintf(stdout, "tensors: %s\n", tensors)

	return exitOK
}
