package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ndump/internal/consoles"
)

const defaultRedumpBaseURL = "http://redump.org"

// RedumpClient downloads Logiqx DATs from the Redump datfile endpoint.
type RedumpClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRedumpClient returns a client with production defaults.
func NewRedumpClient() *RedumpClient {
	return &RedumpClient{
		BaseURL:    defaultRedumpBaseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// FetchDAT downloads and parses the DAT for a disc console. Redump serves
// DATs zipped; the first .dat entry inside is the datafile.
func (c *RedumpClient) FetchDAT(ctx context.Context, console consoles.Console) (*DATFile, error) {
	slug, ok := console.RedumpSlug()
	if !ok {
		return nil, fmt.Errorf("console %s has no redump datfile", console)
	}
	return c.fetchSlug(ctx, slug)
}

// FetchCueDAT downloads the cuesheet DAT for consoles that publish one.
func (c *RedumpClient) FetchCueDAT(ctx context.Context, console consoles.Console) (*DATFile, error) {
	slug, ok := console.RedumpCueSlug()
	if !ok {
		return nil, fmt.Errorf("console %s has no redump cuesheet datfile", console)
	}
	return c.fetchSlug(ctx, slug)
}

func (c *RedumpClient) fetchSlug(ctx context.Context, slug string) (*DATFile, error) {
	url := fmt.Sprintf("%s/datfile/%s/", c.BaseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build datfile request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read datfile body: %w", err)
	}

	data, err := extractDATFromZip(body)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}
	return ParseDAT(data)
}

func extractDATFromZip(payload []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, file := range zr.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".dat") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", file.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("zip contains no .dat entry")
}
