package oddsapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/valuebot/internal/domain"
	"github.com/alejandrodnm/valuebot/internal/ports"
)

const oddsPathFmt = "/v4/sports/%s/odds/"

// FetchOdds implementa ports.OddsProvider.
func (c *Client) FetchOdds(ctx context.Context, req ports.OddsRequest) ([]domain.Event, error) {
	if req.Sport == "" {
		return nil, fmt.Errorf("oddsapi.FetchOdds: empty sport key")
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("oddsFormat", "decimal")
	if len(req.Regions) > 0 {
		q.Set("regions", strings.Join(req.Regions, ","))
	}
	if len(req.Markets) > 0 {
		q.Set("markets", strings.Join(req.Markets, ","))
	}
	if len(req.Bookmakers) > 0 {
		q.Set("bookmakers", strings.Join(req.Bookmakers, ","))
	}
	endpoint := c.base + fmt.Sprintf(oddsPathFmt, url.PathEscape(req.Sport)) + "?" + q.Encode()

	var raw []oddsEvent
	header, err := c.get(ctx, endpoint, &raw)
	if err != nil {
		return nil, fmt.Errorf("oddsapi.FetchOdds: %s: %w", req.Sport, err)
	}

	slog.Debug("odds fetched",
		"sport", req.Sport,
		"events", len(raw),
		"requests_remaining", header.Get("x-requests-remaining"),
		"requests_used", header.Get("x-requests-used"),
	)
	return mapEvents(raw, req.Sport), nil
}
