package holiday

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Fetcher loads one calendar year. The table maps "MM-DD" to true for a
// public holiday and false for an adjusted workday; ordinary days are absent.
type Fetcher interface {
	Fetch(ctx context.Context, year int) (map[string]bool, error)
}

type apiResponse struct {
	Code    int                      `json:"code"`
	Holiday map[string]apiHolidayDay `json:"holiday"`
}

type apiHolidayDay struct {
	Holiday bool   `json:"holiday"`
	Name    string `json:"name"`
	Date    string `json:"date"`
}

// HTTPFetcher queries "<endpoint>/<year>".
type HTTPFetcher struct {
	endpoint string
	cli      *client.Client
}

func NewHTTPFetcher(endpoint string, timeout time.Duration) (*HTTPFetcher, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cli, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create holiday http client: %w", err)
	}
	return &HTTPFetcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		cli:      cli,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, year int) (map[string]bool, error) {
	url := f.endpoint + "/" + strconv.Itoa(year)
	status, body, err := f.cli.Get(ctx, nil, url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if status != consts.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, status)
	}
	return decodeYear(body)
}

func decodeYear(body []byte) (map[string]bool, error) {
	var resp apiResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode holiday response: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("holiday api returned code %d", resp.Code)
	}

	table := make(map[string]bool, len(resp.Holiday))
	for mmdd, day := range resp.Holiday {
		if _, err := time.Parse("01-02", mmdd); err != nil {
			continue
		}
		table[mmdd] = day.Holiday
	}
	return table, nil
}
