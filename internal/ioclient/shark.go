package ioclient

import (
	"context"
	"net/url"
	"time"

	"github.com/gnames/gnsos/pkg/provider/shark"
)

// SharkClient reads datasets of the SHARK web service.
type SharkClient struct {
	http *HTTPClient
}

// NewSharkClient creates a client of the service at baseURL. Datasets
// are downloaded not more often than once per interval.
func NewSharkClient(
	baseURL string,
	interval time.Duration,
	opts ...ClientOption,
) *SharkClient {
	opts = append([]ClientOption{OptInterval(interval)}, opts...)
	return &SharkClient{http: NewHTTPClient("shark", baseURL, opts...)}
}

// GetDatasets returns the list of available datasets.
func (c *SharkClient) GetDatasets(ctx context.Context) ([]shark.DatasetInfo, error) {
	var res []shark.DatasetInfo
	if err := c.http.GetJSON(ctx, "datasets/list.json", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetDataset returns the data table of a dataset.
func (c *SharkClient) GetDataset(
	ctx context.Context,
	name string,
) (*shark.JSONFile, error) {
	var res shark.JSONFile
	path := "datasets/" + url.PathEscape(name) + "/data.json"
	if err := c.http.GetJSON(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
