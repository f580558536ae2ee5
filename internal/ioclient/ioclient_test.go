package ioclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/ioclient"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMVMClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/observations", r.URL.Path)
			assert.Equal(t, "11", r.URL.Query().Get("changeId"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			fmt.Fprint(w, `{"observations":[
				{"occurrenceId":"a","scientificName":"Parus major"},
				{"occurrenceId":"b","isDeleted":true}
			],"maxChangeId":12}`)
		}))
	defer srv.Close()

	c := ioclient.NewMVMClient(srv.URL + "/api/")
	res, err := c.GetObservations(context.Background(), 11, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.MaxChangeID)
	require.Len(t, res.Observations, 2)
	assert.Equal(t, "Parus major", res.Observations[0].ScientificName)
	assert.True(t, res.Observations[1].IsDeleted)
}

func TestSharkClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/list.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"datasetName":"SHARK_Zooplankton_2019","datasetType":"Zooplankton"}]`)
	})
	mux.HandleFunc("/datasets/SHARK_Zooplankton_2019/data.json",
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"header":["sample_id","dyntaxa_id"],"rows":[["S1","42"]]}`)
		})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := ioclient.NewSharkClient(srv.URL, 0)
	ctx := context.Background()
	ds, err := c.GetDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)

	f, err := c.GetDataset(ctx, ds[0].Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_id", "dyntaxa_id"}, f.Header)
	assert.Len(t, f.Rows, 1)
}

func TestRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"observations":[],"maxChangeId":0}`)
		}))
	defer srv.Close()

	c := ioclient.NewMVMClient(srv.URL,
		ioclient.OptRetries(3, time.Millisecond))
	res, err := c.GetObservations(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, res.MaxChangeID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
	defer srv.Close()

	c := ioclient.NewMVMClient(srv.URL,
		ioclient.OptRetries(3, time.Millisecond))
	_, err := c.GetObservations(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.HarvestSourceError, gnErr.Code)
}

func TestBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"observations":`)
		}))
	defer srv.Close()

	c := ioclient.NewMVMClient(srv.URL)
	_, err := c.GetObservations(context.Background(), 1, 10)
	assert.Error(t, err)
}

func TestCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := ioclient.NewMVMClient(srv.URL)
	_, err := c.GetObservations(ctx, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
	defer srv.Close()

	c := ioclient.NewSharkClient(srv.URL, 50*time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	for range 3 {
		_, err := c.GetDatasets(ctx)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDownload(t *testing.T) {
	var calls atomic.Int32
	body := strings.Repeat("dwca archive bytes ", 1000)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/flaky.zip":
				if calls.Add(1) < 2 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				fmt.Fprint(w, body)
			case "/dwca.zip":
				fmt.Fprint(w, body)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	defer srv.Close()

	tests := []struct {
		msg, path string
		ok        bool
	}{
		{"plain", "/dwca.zip", true},
		{"retried", "/flaky.zip", true},
		{"missing", "/none.zip", false},
	}

	c := ioclient.NewHTTPClient("files", srv.URL,
		ioclient.OptRetries(2, time.Millisecond),
		ioclient.OptDownloadTimeout(time.Minute))
	for _, v := range tests {
		dst := filepath.Join(t.TempDir(), "dwca.zip")
		n, err := c.Download(context.Background(), srv.URL+v.path, dst)

		_, partErr := os.Stat(dst + ".part")
		assert.True(t, os.IsNotExist(partErr), v.msg)
		if !v.ok {
			require.Error(t, err, v.msg)
			_, dstErr := os.Stat(dst)
			assert.True(t, os.IsNotExist(dstErr), v.msg)
			continue
		}
		require.NoError(t, err, v.msg)
		assert.Equal(t, int64(len(body)), n, v.msg)
		data, err := os.ReadFile(dst)
		require.NoError(t, err, v.msg)
		assert.Equal(t, body, string(data), v.msg)
	}
	assert.Equal(t, int32(2), calls.Load())
}
