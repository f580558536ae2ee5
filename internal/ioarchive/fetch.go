// Package ioarchive gets provider archives to the local file system and
// reads occurrence cores of Darwin Core Archives.
package ioarchive

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnsos/internal/ioclient"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Fetcher gets archives of data providers. Sources can be local paths,
// http(s) URLs or s3://bucket/key locations of s3-compatible storage.
type Fetcher struct {
	dir   string
	minio config.MinioConfig
	http  *ioclient.HTTPClient
	s3    *minio.Client
}

// NewFetcher creates a Fetcher that downloads remote archives into dir.
func NewFetcher(dir string, cfg config.MinioConfig) *Fetcher {
	return &Fetcher{
		dir:   dir,
		minio: cfg,
		http:  ioclient.NewHTTPClient("archive", ""),
	}
}

// Fetch returns a local path to the archive of a provider. Local sources
// are used in place, remote sources are downloaded into
// <dir>/<identifier>/.
func (f *Fetcher) Fetch(ctx context.Context, dp provider.DataProvider) (string, error) {
	src := strings.TrimSpace(dp.Source)
	switch {
	case strings.HasPrefix(src, "s3://"):
		return f.fetchS3(ctx, dp.Identifier, src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, dp.Identifier, src)
	default:
		if _, err := os.Stat(src); err != nil {
			return "", FetchError(src, err)
		}
		return src, nil
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, id, src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", FetchError(src, err)
	}
	dst, err := f.target(id, path.Base(u.Path))
	if err != nil {
		return "", FetchError(src, err)
	}

	slog.Info("Downloading archive", "provider", id, "url", src)
	n, err := f.http.Download(ctx, src, dst)
	if err != nil {
		return "", FetchError(src, err)
	}
	slog.Info("Archive downloaded",
		"provider", id, "path", dst, "size", humanize.Bytes(uint64(n)))
	return dst, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, id, src string) (string, error) {
	bucket, key, err := parseS3(src)
	if err != nil {
		return "", FetchError(src, err)
	}
	client, err := f.s3Client()
	if err != nil {
		return "", FetchError(src, err)
	}
	dst, err := f.target(id, path.Base(key))
	if err != nil {
		return "", FetchError(src, err)
	}

	slog.Info("Downloading archive", "provider", id, "bucket", bucket, "key", key)
	err = client.FGetObject(ctx, bucket, key, dst, minio.GetObjectOptions{})
	if err != nil {
		return "", FetchError(src, err)
	}
	return dst, nil
}

func (f *Fetcher) s3Client() (*minio.Client, error) {
	if f.s3 != nil {
		return f.s3, nil
	}
	if f.minio.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}
	client, err := minio.New(f.minio.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			f.minio.AccessKey, f.minio.SecretKey, "",
		),
		Secure: f.minio.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	f.s3 = client
	return client, nil
}

func (f *Fetcher) target(id, name string) (string, error) {
	if name == "" || name == "." || name == "/" {
		name = "archive"
	}
	dir := filepath.Join(f.dir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// parseS3 splits s3://bucket/key into bucket and key.
func parseS3(src string) (string, string, error) {
	rest := strings.TrimPrefix(src, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("location %s is not s3://bucket/key", src)
	}
	return bucket, key, nil
}
