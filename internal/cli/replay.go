package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/metrics"
	"github.com/roach88/querychain/internal/provider"
	"github.com/roach88/querychain/internal/query"
	"github.com/roach88/querychain/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	All         bool
	Workers     int // 0 = config workers
	MetricsFile string
}

// ReplayQueryResult holds the replay result for a single saved chain.
type ReplayQueryResult struct {
	Name     string `json:"name"`
	Class    string `json:"class"`
	Steps    int    `json:"steps"`
	OK       bool   `json:"ok"`
	Describe string `json:"describe,omitempty"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Queries []ReplayQueryResult `json:"queries"`
	Total   int                 `json:"total"`
	Failed  int                 `json:"failed"`
	AllOK   bool                `json:"all_ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [name...]",
		Short: "Replay saved chains against the catalog",
		Long: `Deserialize saved chains against the current catalog and database and
report which still replay. A replayed chain must hash to the value stored
when it was saved.

Chains are replayed concurrently on a bounded worker pool. With
--metrics-file the replay counters are written in Prometheus text format
for the node_exporter textfile collector.

Exit codes:
  0 - Every chain replayed
  1 - One or more chains failed to replay
  2 - Command error (database not found, catalog invalid, etc.)

Examples:
  querychain replay paid-orders
  querychain replay --all --workers 8
  querychain replay --all --metrics-file /var/lib/node_exporter/querychain.prom`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every saved chain")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent replays (default from config)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

func runReplay(opts *ReplayOptions, names []string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.All == (len(names) > 0) {
		return NewExitError(ExitCommandError, "give saved chain names or --all, not both")
	}
	workers := opts.Workers
	if workers == 0 {
		workers = opts.cfg.Workers
	}
	if workers < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--workers must be at least 1, got %d", workers))
	}

	var saved []store.SavedQuery
	err := withStore(opts.RootOptions, formatter, func(st *store.Store) error {
		var err error
		saved, err = selectSaved(ctx, st, names, opts.All)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to read saved chains", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ws, err := opts.openWorkspace(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open workspace", err)
	}
	defer ws.Close()

	registry := prometheus.NewRegistry()
	observer := metrics.NewReplayMetrics(registry)

	results, err := replayAll(ws.resolver, saved, workers, opts.logger, opts.queryOptions(query.WithObserver(observer)))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start replay workers", err)
	}

	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile, registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		formatter.VerboseLog("metrics written to %s", opts.MetricsFile)
	}

	result := ReplayResult{Queries: results, Total: len(results), AllOK: true}
	for _, r := range results {
		if !r.OK {
			result.Failed++
			result.AllOK = false
		}
	}
	opts.logger.Info("replay finished", "total", result.Total, "failed", result.Failed, "workers", workers)

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printReplayText(cmd, result)
	}

	if !result.AllOK {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d chain(s) failed to replay", result.Failed, result.Total))
	}
	return nil
}

func selectSaved(ctx context.Context, st *store.Store, names []string, all bool) ([]store.SavedQuery, error) {
	if all {
		return st.List(ctx)
	}
	saved := make([]store.SavedQuery, 0, len(names))
	for _, name := range names {
		q, err := st.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		saved = append(saved, q)
	}
	return saved, nil
}

// replayAll replays every saved chain on a pool of workers. Results keep
// the order of saved. A worker that panics leaves its chain marked failed.
func replayAll(resolver provider.Resolver, saved []store.SavedQuery, workers int, logger *slog.Logger, qopts []query.Option) ([]ReplayQueryResult, error) {
	results := make([]ReplayQueryResult, len(saved))
	if len(saved) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("replay worker panic", "panic", v)
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, q := range saved {
		results[i] = pendingResult(q)
		results[i].Error = "replay did not complete"

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = replayOne(resolver, q, qopts)
		})
		if err != nil {
			wg.Done()
			results[i].Error = fmt.Sprintf("submit: %v", err)
		}
	}
	wg.Wait()

	return results, nil
}

func pendingResult(q store.SavedQuery) ReplayQueryResult {
	return ReplayQueryResult{
		Name:  q.Name,
		Class: string(q.Class),
		Steps: len(q.Document.Chain),
		Code:  ErrCodeGeneric,
	}
}

func replayOne(resolver provider.Resolver, q store.SavedQuery, qopts []query.Option) ReplayQueryResult {
	r := pendingResult(q)
	r.Code = ""

	rec, err := query.FromDocument(resolver, q.Document, qopts...)
	if err != nil {
		r.Code = ErrorCode(err)
		r.Error = err.Error()
		return r
	}
	r.Describe = rec.Describe()

	hash, err := rec.Hash()
	if err != nil {
		r.Code = ErrorCode(err)
		r.Error = err.Error()
		return r
	}
	if hash != q.ChainHash {
		r.Code = ErrCodeReplayFailed
		r.Error = fmt.Sprintf("chain hash changed: saved %s, replayed %s", shortHash(q.ChainHash), shortHash(hash))
		return r
	}

	r.OK = true
	return r
}

func printReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d chain(s)\n", result.Total)
	fmt.Fprintln(w)

	for _, q := range result.Queries {
		if q.OK {
			fmt.Fprintf(w, "✓ %s: %s\n", q.Name, q.Describe)
			continue
		}
		fmt.Fprintf(w, "✗ %s (%s, %d steps)\n", q.Name, q.Class, q.Steps)
		fmt.Fprintf(w, "  Error [%s]: %s\n", q.Code, q.Error)
	}
	fmt.Fprintln(w)

	if result.AllOK {
		fmt.Fprintln(w, "✓ All chains replayed")
		return
	}
	fmt.Fprintf(w, "✗ %d chain(s) failed to replay\n", result.Failed)
}
