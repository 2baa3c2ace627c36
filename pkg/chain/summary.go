package chain

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Summary describes one page of blocks.
type Summary struct {
	// AverageInterval is the mean gap between consecutive blocks, in seconds.
	AverageInterval   float64
	AverageDifficulty float64
	TotalTxs          int
}

// Summarize computes the summary cards of a block page. Blocks are expected
// newest first. Fewer than two blocks yield a zero interval.
func Summarize(blocks []Block) Summary {
	var s Summary
	if len(blocks) == 0 {
		return s
	}

	if len(blocks) > 1 {
		var total float64
		for i := 0; i < len(blocks)-1; i++ {
			total += blocks[i].Timestamp.Sub(blocks[i+1].Timestamp).Seconds()
		}
		s.AverageInterval = total / float64(len(blocks)-1)
	}

	var difficulty float64
	for _, b := range blocks {
		difficulty += b.Difficulty
		s.TotalTxs += len(b.Transactions)
	}
	s.AverageDifficulty = difficulty / float64(len(blocks))

	return s
}

// IntervalString formats the average interval with four decimals.
func (s Summary) IntervalString() string {
	return strconv.FormatFloat(s.AverageInterval, 'f', 4, 64)
}

// DifficultyString formats the average difficulty, truncated and grouped
// by thousands.
func (s Summary) DifficultyString() string {
	return humanize.Comma(int64(math.Floor(s.AverageDifficulty)))
}

// TotalTxsString formats the transaction total grouped by thousands.
func (s Summary) TotalTxsString() string {
	return humanize.Comma(int64(s.TotalTxs))
}
