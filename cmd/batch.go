package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/schema"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

// maxLineBytes caps one JSONL profile.
const maxLineBytes = 1 << 20

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Price every profile in a JSON Lines file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		env, err := initEnv(ctx, "batch", nil)
		if err != nil {
			return err
		}

		in, err := openInput(batchInput)
		if err != nil {
			return err
		}
		defer in.Close() //nolint:errcheck

		items, err := readBatch(in, schema.MustNew())
		if err != nil {
			return err
		}

		out, err := openOutput(batchOutput)
		if err != nil {
			return err
		}

		summary, err := writeBatch(ctx, env.Quotes, items, cfg.Batch.Concurrency, out)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return eris.Errorf("batch: %d of %d profiles failed", summary.Failed, len(items))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "-", "JSON Lines file of profiles (- for stdin)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "-", "JSON Lines file for results (- for stdout)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "profiles priced at once (default from config)")
	rootCmd.AddCommand(batchCmd)
}

// readBatch decodes one profile per non-blank line. A line that fails to
// decode becomes an item carrying the error so the rest of the batch
// still runs.
func readBatch(r io.Reader, v *schema.Validator) ([]quote.BatchItem, error) {
	var items []quote.BatchItem
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		item := quote.BatchItem{Line: line}
		if err := v.Validate(schema.Profile, []byte(raw)); err != nil {
			item.Err = err
		} else if p, err := model.DecodeProfile([]byte(raw)); err != nil {
			item.Err = err
		} else {
			item.Profile = p
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "batch: read line %d", line+1)
	}
	return items, nil
}

// writeBatch runs processBatch into out and closes it. A close failure on
// an otherwise clean run is returned since buffered results may be lost.
func writeBatch(ctx context.Context, svc *quote.Service, items []quote.BatchItem, concurrency int, out io.WriteCloser) (quote.BatchSummary, error) {
	summary, err := processBatch(ctx, svc, items, concurrency, out)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = eris.Wrap(cerr, "batch: close output")
	}
	return summary, err
}

// processBatch prices items and writes one result per line to w, in input
// order.
func processBatch(ctx context.Context, svc *quote.Service, items []quote.BatchItem, concurrency int, w io.Writer) (quote.BatchSummary, error) {
	results, summary, err := svc.Batch(ctx, items, concurrency)
	if err != nil {
		return summary, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return summary, eris.Wrapf(err, "batch: write result for line %d", r.Line)
		}
	}
	if err := bw.Flush(); err != nil {
		return summary, eris.Wrap(err, "batch: flush results")
	}

	zap.L().Info("batch summary",
		zap.Int("total", len(items)),
		zap.Int64("quoted", summary.Quoted),
		zap.Int64("not_ready", summary.NotReady),
		zap.Int64("failed", summary.Failed),
	)
	return summary, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: create %s", path)
	}
	return f, nil
}
