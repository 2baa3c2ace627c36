package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/chain"
	"github.com/Sternrassler/graphql-explorer/pkg/pagination"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_live_connections",
		Help: "Open live feed connections",
	})

	liveTicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_live_ticks_skipped_total",
		Help: "Poll ticks skipped because the previous fetch was still in flight",
	})
)

const liveWriteTimeout = 10 * time.Second

// LiveMessage is one refresh of the summary page sent over the feed.
type LiveMessage struct {
	// Seq increases by one per message on a connection, starting at 1.
	Seq               uint64              `json:"seq"`
	Endpoint          string              `json:"endpoint"`
	Cursor            pagination.Cursor   `json:"cursor"`
	Summary           LiveSummary         `json:"summary"`
	Blocks            []chain.Block       `json:"blocks"`
	BlocksError       *FetchError         `json:"blocksError,omitempty"`
	Transactions      []chain.Transaction `json:"transactions"`
	TransactionsError *FetchError         `json:"transactionsError,omitempty"`
	Links             LiveLinks           `json:"links"`
}

// LiveSummary carries the formatted summary cards.
type LiveSummary struct {
	AverageInterval   string `json:"averageInterval"`
	AverageDifficulty string `json:"averageDifficulty"`
	TotalTxs          int    `json:"totalTxs"`
}

// LiveLinks carries the navigation state of the refreshed page.
type LiveLinks struct {
	Older         string `json:"older"`
	Newer         string `json:"newer"`
	OlderDisabled bool   `json:"olderDisabled"`
	NewerDisabled bool   `json:"newerDisabled"`
}

func newLiveMessage(seq uint64, view SummaryView) LiveMessage {
	return LiveMessage{
		Seq:      seq,
		Endpoint: view.Endpoint.Name,
		Cursor:   view.Cursor,
		Summary: LiveSummary{
			AverageInterval:   view.Summary.IntervalString(),
			AverageDifficulty: view.Summary.DifficultyString(),
			TotalTxs:          view.Summary.TotalTxs,
		},
		Blocks:            view.Blocks,
		BlocksError:       view.BlocksError,
		Transactions:      view.Transactions,
		TransactionsError: view.TransactionsError,
		Links: LiveLinks{
			Older:         view.Links.Older,
			Newer:         view.Links.Newer,
			OlderDisabled: view.Links.OlderDisabled,
			NewerDisabled: view.Links.NewerDisabled,
		},
	}
}

// serveLive upgrades the request and pushes the summary page at the URL's
// cursor every poll interval until the client goes away. The cursor never
// changes for the life of the connection.
func (s *Server) serveLive(w http.ResponseWriter, r *http.Request, req request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Live feed upgrade failed")
		return
	}
	defer conn.Close()

	liveConnections.Inc()
	defer liveConnections.Dec()

	// The request context is not tied to a hijacked connection.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.poll(ctx, req, func(msg LiveMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// poll fetches immediately and then once per tick. A tick that finds the
// previous fetch still running is skipped, so messages leave in fetch order.
func (s *Server) poll(ctx context.Context, req request, send func(LiveMessage) error) {
	logger := s.logger.With().Str("feed", "summary").Logger()

	results := make(chan SummaryView, 1)
	fetch := func() {
		view := s.buildSummary(ctx, req)
		select {
		case results <- view:
		case <-ctx.Done():
		}
	}

	inFlight := true
	go fetch()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if inFlight {
				liveTicksSkippedTotal.Inc()
				continue
			}
			inFlight = true
			go fetch()
		case view := <-results:
			inFlight = false
			seq++
			if err := send(newLiveMessage(seq, view)); err != nil {
				logger.Debug().Err(err).Uint64("seq", seq).Msg("Live feed closed")
				return
			}
		}
	}
}
