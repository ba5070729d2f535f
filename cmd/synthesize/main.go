package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danielpatrickdp/correction-synth/internal/batch"
	"github.com/danielpatrickdp/correction-synth/internal/config"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/ledger"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
	"github.com/danielpatrickdp/correction-synth/internal/validator"
)

// #region flags

// contextFlag collects repeated --context key=value pairs.
type contextFlag map[string]string

func (c contextFlag) String() string { return fmt.Sprint(map[string]string(c)) }

func (c contextFlag) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	c[k] = val
	return nil
}

// #endregion flags

// #region main

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	textPath := flag.String("text", "", "document text file ('-' for stdin)")
	findingsPath := flag.String("findings", "", "findings JSON (array or module/gate set)")
	batchPath := flag.String("batch", "", "batch JSON: array of {id, request}")
	docType := flag.String("document-type", "", "document type for context-aware filtering")
	contextAware := flag.Bool("context-aware", false, "drop findings irrelevant to the document type")
	singleLevel := flag.Bool("single-level", false, "template insertion only")
	maxIter := flag.Int("max-iterations", 0, "iteration budget (1-10); 0 uses SYNTH_MAX_ITERATIONS")
	textOnly := flag.Bool("text-only", false, "print only the corrected text")
	ctxVals := contextFlag{}
	flag.Var(ctxVals, "context", "template context key=value (repeatable)")
	flag.Parse()

	if (*textPath == "") == (*batchPath == "") {
		fmt.Fprintln(os.Stderr, "usage: synthesize --text doc.txt --findings findings.json [--document-type t] [--context k=v]")
		fmt.Fprintln(os.Stderr, "       synthesize --batch items.json")
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *maxIter > 0 {
		cfg.MaxIterations = *maxIter
	}
	logger := cfg.Logger()

	env, err := setup(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	var code int
	if *batchPath != "" {
		code = runBatch(ctx, env, cfg, *batchPath, logger)
	} else {
		req, err := buildRequest(*textPath, *findingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "input: %v\n", err)
			code = 2
		} else {
			req.Metadata = synthesis.Metadata{DocumentType: *docType, Context: ctxVals}
			req.Options = cfg.SynthesisOptions()
			req.Options.ContextAware = *contextAware
			req.Options.MultiLevel = !*singleLevel
			code = runSingle(ctx, env, req, *textOnly, logger)
		}
	}
	cancel()
	env.close()
	os.Exit(code)
}

// #endregion main

// #region setup

type environment struct {
	engine *synthesis.Engine
	client *validator.Client
	store  *ledger.Store
}

func (e *environment) close() {
	e.client.Close()
	if e.store != nil {
		e.store.Close()
	}
}

// setup wires the registry, the optional remote validator and the optional ledger.
func setup(cfg config.Config, logger *logging.Logger) (*environment, error) {
	reg := taxonomy.Default()
	if cfg.TaxonomyPath != "" {
		var err error
		if reg, err = taxonomy.Load(cfg.TaxonomyPath); err != nil {
			return nil, fmt.Errorf("taxonomy: %w", err)
		}
		logger.Info("loaded taxonomy overlay %s", cfg.TaxonomyPath)
	}

	env := &environment{}
	opts := []synthesis.Option{synthesis.WithLogger(logger)}
	if cfg.ValidatorAddr != "" {
		client, err := validator.NewClient(cfg.ValidatorAddr, cfg.ValidatorTimeout)
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", cfg.ValidatorAddr, err)
		}
		env.client = client
		opts = append(opts, synthesis.WithValidator(client))
	}
	if cfg.LedgerDB != "" {
		store, err := ledger.NewStore(cfg.LedgerDB, logger)
		if err != nil {
			env.close()
			return nil, fmt.Errorf("ledger: %w", err)
		}
		env.store = store
	}
	env.engine = synthesis.NewEngine(reg, opts...)
	return env, nil
}

func buildRequest(textPath, findingsPath string) (synthesis.Request, error) {
	text, err := readInput(textPath)
	if err != nil {
		return synthesis.Request{}, fmt.Errorf("read text: %w", err)
	}
	var findings []finding.Finding
	if findingsPath != "" {
		data, err := os.ReadFile(findingsPath)
		if err != nil {
			return synthesis.Request{}, fmt.Errorf("read findings: %w", err)
		}
		if findings, err = finding.Decode(data); err != nil {
			return synthesis.Request{}, err
		}
	}
	return synthesis.Request{Text: string(text), Findings: findings}, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// #endregion setup

// #region run

func runSingle(ctx context.Context, env *environment, req synthesis.Request, textOnly bool, logger *logging.Logger) int {
	res := env.engine.Synthesize(ctx, req)

	if env.store != nil {
		rec, err := env.store.RecordRun(res, ledger.RunMeta{
			DocumentType: req.Metadata.DocumentType,
			Thresholds:   integrity.DefaultConfig(),
		})
		switch {
		case errors.Is(err, ledger.ErrNondeterministic):
			logger.Warn("%v", err)
		case err != nil:
			logger.Error("record run: %v", err)
		default:
			logger.Info("run %s recorded", rec.RunID)
		}
	}

	if textOnly {
		fmt.Print(res.Text)
	} else if err := writeJSON(os.Stdout, res); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		return 1
	}
	return exitCode(res.Report)
}

func runBatch(ctx context.Context, env *environment, cfg config.Config, path string, logger *logging.Logger) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read batch: %v\n", err)
		return 2
	}
	var items []batch.Item
	if err := json.Unmarshal(data, &items); err != nil {
		fmt.Fprintf(os.Stderr, "parse batch: %v\n", err)
		return 2
	}

	opts := []batch.Option{batch.WithLogger(logger)}
	if env.store != nil {
		opts = append(opts, batch.WithRecorder(env.store, integrity.DefaultConfig()))
	}
	outcomes := batch.NewRunner(env.engine, cfg.Workers, opts...).Run(ctx, items)

	if err := writeJSON(os.Stdout, outcomes); err != nil {
		fmt.Fprintf(os.Stderr, "encode outcomes: %v\n", err)
		return 1
	}

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "item %s: %v\n", o.ID, o.Err)
		}
	}
	s := batch.Summarize(outcomes)
	fmt.Fprintf(os.Stderr, "\nSummary: %d total, %d failed", s.Total, s.Failed)
	for status, n := range s.ByStatus {
		fmt.Fprintf(os.Stderr, ", %s=%d", status, n)
	}
	fmt.Fprintln(os.Stderr)

	code := 0
	for _, o := range outcomes {
		if o.Err != nil || exitCode(o.Result.Report) != 0 {
			code = 1
		}
	}
	return code
}

// #endregion run

// #region helpers

// exitCode is 1 when the report carries errors. Warnings alone still exit 0.
func exitCode(r synthesis.Report) int {
	if !r.Valid {
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// #endregion helpers
