package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grouk-eth/PumpBot/pkg/utils"
)

// HTTPClient polls a JSON token feed endpoint.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains feed client configuration
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewHTTPClient creates a new feed client
func NewHTTPClient(cfg ClientConfig, logger *logrus.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 6 * time.Second
	}

	return &HTTPClient{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Wire types. USD-denominated fields arrive as numbers or quoted strings
// depending on the upstream provider, so they are decoded loosely.
type snapshotWire struct {
	Tokens []tokenWire `json:"tokens"`
}

type tokenWire struct {
	Mint              string         `json:"mint"`
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	VolumeUSD         interface{}    `json:"volume_usd"`
	LiquidityAdded    bool           `json:"liquidity_added"`
	SuggestedSpendSOL interface{}    `json:"suggested_spend_sol"`
	BuyEvents         []buyEventWire `json:"buy_events"`
}

type buyEventWire struct {
	USD   interface{} `json:"usd"`
	Buyer string      `json:"buyer"`
	TS    int64       `json:"ts"`
}

// FetchSnapshot fetches the current feed snapshot
func (c *HTTPClient) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("feed returned status %s", res.Status)
	}

	var wire snapshotWire
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode feed snapshot: %w", err)
	}

	snapshot := &Snapshot{Tokens: make([]Token, 0, len(wire.Tokens))}
	for _, tw := range wire.Tokens {
		token := Token{
			Mint:              tw.Mint,
			Symbol:            tw.Symbol,
			Name:              tw.Name,
			VolumeUSD:         utils.ParseFloat(tw.VolumeUSD, 0),
			LiquidityAdded:    tw.LiquidityAdded,
			SuggestedSpendSOL: utils.ParseFloat(tw.SuggestedSpendSOL, 0),
		}
		for _, be := range tw.BuyEvents {
			token.BuyEvents = append(token.BuyEvents, BuyEvent{
				USD:       utils.ParseFloat(be.USD, 0),
				Buyer:     be.Buyer,
				Timestamp: be.TS,
			})
		}
		snapshot.Tokens = append(snapshot.Tokens, token)
	}

	c.logger.WithField("tokens", len(snapshot.Tokens)).Debug("Feed snapshot fetched")
	return snapshot, nil
}
