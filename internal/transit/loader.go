package transit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"metroroute.org/internal/logging"
	"metroroute.org/internal/network"
)

const maxSourceSize = 100 * 1024 * 1024

var httpClient = &http.Client{
	Timeout: 2 * time.Minute,
	Transport: &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	},
}

// rawData reads a local file or downloads a URL.
func rawData(ctx context.Context, source string, config Config) ([]byte, error) {
	if !isRemote(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local network file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating network data request: %w", err)
	}
	if config.AuthHeaderKey != "" && config.AuthHeaderValue != "" {
		req.Header.Set(config.AuthHeaderKey, config.AuthHeaderValue)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading network data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "network_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download network data: received HTTP status %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading network data: %w", err)
	}
	if int64(len(b)) > maxSourceSize {
		return nil, fmt.Errorf("network data response exceeds size limit of %d bytes", maxSourceSize)
	}
	return b, nil
}

// loadSource gathers every configured file into a decodable source.
func loadSource(ctx context.Context, config Config) (network.Source, error) {
	src := network.Source{
		Name:   filepath.Base(config.DataPath),
		Format: config.Format,
	}
	if isRemote(config.DataPath) {
		src.Name = config.DataPath
	}

	var err error
	if src.Data, err = rawData(ctx, config.DataPath, config); err != nil {
		return src, err
	}
	if config.CoordinatesPath != "" {
		if src.Coordinates, err = rawData(ctx, config.CoordinatesPath, config); err != nil {
			return src, err
		}
	}
	if config.WalkingPath != "" {
		if src.Walking, err = rawData(ctx, config.WalkingPath, config); err != nil {
			return src, err
		}
	}
	return src, nil
}
