package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/promcollector"
)

func newPrivatizeCmd(root *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "privatize [sequence...]",
		Short: "Privatize token id sequences",
		Long: `Privatize reads token id sequences, one per argument or one per line of
stdin when no argument is given. Ids are separated by commas or whitespace.
Every privatized sequence is written as one line of space separated ids.`,
		Example: `  mdp privatize --epsilon 200 "101,7592,2088,102"
  cat ids.txt | mdp privatize --epsilon 50 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrivatize(cmd, root, args, metricsAddr)
		},
	}

	cmd.Flags().Float64("epsilon", 0, "privacy budget (larger means less noise)")
	cmd.Flags().IntSlice("special", nil, "token ids copied unchanged")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	_ = root.v.BindPFlag("privacy.epsilon", cmd.Flags().Lookup("epsilon"))
	_ = root.v.BindPFlag("privacy.special_tokens", cmd.Flags().Lookup("special"))

	return cmd
}

func runPrivatize(cmd *cobra.Command, root *rootOptions, args []string, metricsAddr string) error {
	ctx := cmd.Context()

	cfg, err := root.config()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}

	var mc metricdp.MetricsCollector
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		mc = promcollector.New(reg)

		stop, err := serveMetrics(metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	p, err := newPrivatizer(cfg, logger, mc)
	if err != nil {
		return err
	}

	bs, err := openBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if err := p.LoadIndex(ctx, bs, cfg.Index.Snapshot); err != nil {
		return err
	}

	var seqs [][]int
	if len(args) > 0 {
		for _, a := range args {
			seq, err := parseSequence(a)
			if err != nil {
				return err
			}
			seqs = append(seqs, seq)
		}
	} else {
		seqs, err = readSequences(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	special := metricdp.NewSpecialTokens(cfg.Privacy.SpecialTokens...)
	out, err := p.PrivatizeBatch(ctx, seqs, cfg.Privacy.Epsilon, special)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, seq := range out {
		if _, err := w.WriteString(formatSequence(seq) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *metricdp.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func parseSequence(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	seq := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", f, err)
		}
		seq = append(seq, id)
	}
	return seq, nil
}

func readSequences(r io.Reader) ([][]int, error) {
	var seqs [][]int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		seq, err := parseSequence(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		seqs = append(seqs, seq)
	}
	return seqs, sc.Err()
}

func formatSequence(seq []int) string {
	parts := make([]string, len(seq))
	for i, id := range seq {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
