package quote

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rating-cli/internal/model"
)

// BatchItem is one profile of a batch, tagged with its input line.
type BatchItem struct {
	Line    int
	Profile model.RiskProfile
	// Err is set when the line could not be decoded; the item is reported
	// as failed without quoting.
	Err error
}

// BatchResult is the outcome for one BatchItem.
type BatchResult struct {
	Line   int                `json:"line"`
	Result *Result            `json:"result,omitempty"`
	Issues []model.FieldError `json:"issues,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Quoted   int64 `json:"quoted"`
	NotReady int64 `json:"not_ready"`
	Failed   int64 `json:"failed"`
}

// Batch quotes items concurrently, at most concurrency at a time, and
// returns results in input order. Individual failures are reported in
// their BatchResult and do not stop the batch; only cancellation does.
func (s *Service) Batch(ctx context.Context, items []BatchItem, concurrency int) ([]BatchResult, BatchSummary, error) {
	var summary BatchSummary
	if len(items) == 0 {
		return nil, summary, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("quote: processing batch",
		zap.Int("profiles", len(items)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]BatchResult, len(items))
	var quoted, notReady, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out := BatchResult{Line: item.Line}
			if item.Err != nil {
				failed.Add(1)
				out.Error = item.Err.Error()
				results[i] = out
				return nil
			}

			res, err := s.Quote(item.Profile)
			var nr *NotReadyError
			switch {
			case errors.As(err, &nr):
				notReady.Add(1)
				out.Issues = nr.Issues
				out.Error = err.Error()
			case err != nil:
				failed.Add(1)
				out.Error = err.Error()
			default:
				quoted.Add(1)
				out.Result = res
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, summary, eris.Wrap(err, "quote: batch")
	}

	summary = BatchSummary{Quoted: quoted.Load(), NotReady: notReady.Load(), Failed: failed.Load()}
	zap.L().Info("quote: batch complete",
		zap.Int64("quoted", summary.Quoted),
		zap.Int64("not_ready", summary.NotReady),
		zap.Int64("failed", summary.Failed),
	)
	return results, summary, nil
}
