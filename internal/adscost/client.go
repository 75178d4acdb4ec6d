// Package adscost предоставляет клиент для внешнего сервиса рекламных расходов.
package adscost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmeshcher/delivery-system/internal/failure"
)

// Client инкапсулирует HTTP-взаимодействие с сервисом рекламных расходов.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// shopCost описывает расход одного магазина за период в единицах валюты.
type shopCost struct {
	ShopID    uuid.UUID `json:"shop_id"`
	TotalCost float64   `json:"total_cost"`
}

// NewClient создаёт клиент сервиса рекламных расходов по указанному адресу.
// Транспортные ошибки ретраятся на уровне HTTP-клиента.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
	}
}

// GetCostsForPeriod возвращает рекламные расходы магазинов за период в
// минимальных единицах валюты. Для несконфигурированного клиента (nil)
// расходы считаются нулевыми.
func (c *Client) GetCostsForPeriod(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	if c == nil || c.baseURL == "" {
		return map[uuid.UUID]int64{}, nil
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))

	reqURL := fmt.Sprintf("%s/api/ads/costs?%s", base, q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.Network("ads cost service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return map[uuid.UUID]int64{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Network(
			fmt.Sprintf("ads cost service returned status %d", resp.StatusCode), nil)
	}

	var costs []shopCost
	if err := json.NewDecoder(resp.Body).Decode(&costs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	res := make(map[uuid.UUID]int64, len(costs))
	for _, c := range costs {
		res[c.ShopID] += int64(c.TotalCost * 100)
	}

	return res, nil
}
