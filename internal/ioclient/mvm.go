package ioclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gnames/gnsos/pkg/provider/mvm"
)

// MVMClient reads pages of observations from the MVM web service.
type MVMClient struct {
	http *HTTPClient
}

// NewMVMClient creates a client of the service at baseURL.
func NewMVMClient(baseURL string, opts ...ClientOption) *MVMClient {
	return &MVMClient{http: NewHTTPClient("mvm", baseURL, opts...)}
}

// GetObservations returns up to pageSize observations changed at or
// after changeID.
func (c *MVMClient) GetObservations(
	ctx context.Context,
	changeID int64,
	pageSize int,
) (*mvm.ObservationsResponse, error) {
	q := url.Values{}
	q.Set("changeId", strconv.FormatInt(changeID, 10))
	q.Set("limit", strconv.Itoa(pageSize))

	var res mvm.ObservationsResponse
	if err := c.http.GetJSON(ctx, "observations", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
