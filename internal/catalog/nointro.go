package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ndump/internal/consoles"
)

const defaultNoIntroBaseURL = "https://datomatic.no-intro.org"

// NoIntroClient downloads Logiqx DATs from the No-Intro DAT-o-MATIC site.
// DAT-o-MATIC has no download API; the client walks the daily download form
// the way a browser would.
type NoIntroClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewNoIntroClient returns a client with production defaults.
func NewNoIntroClient() *NoIntroClient {
	return &NoIntroClient{
		BaseURL:    defaultNoIntroBaseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// FetchDAT downloads and parses the standard DAT for a cartridge console.
func (c *NoIntroClient) FetchDAT(ctx context.Context, console consoles.Console) (*DATFile, error) {
	systemName, ok := console.NoIntroName()
	if !ok {
		return nil, fmt.Errorf("console %s has no no-intro datfile", console)
	}

	pageURL := c.BaseURL + "/index.php?page=download&op=daily"
	form, action, err := c.downloadForm(ctx, pageURL, systemName)
	if err != nil {
		return nil, err
	}

	payload, err := c.submitForm(ctx, action, form)
	if err != nil {
		return nil, err
	}

	// The daily endpoint serves a zip holding a single .dat.
	data, err := extractDATFromZip(payload)
	if err != nil {
		return nil, fmt.Errorf("extract no-intro dat for %s: %w", console, err)
	}
	return ParseDAT(data)
}

// downloadForm loads the daily download page and collects the form fields,
// selecting the requested system from the system dropdown.
func (c *NoIntroClient) downloadForm(ctx context.Context, pageURL, systemName string) (url.Values, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build daily page request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch daily page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch daily page: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse daily page: %w", err)
	}

	form := url.Values{}
	var action string
	var found bool

	doc.Find("form").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		systemValue := ""
		sel.Find("select[name=\"system_selection\"] option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
			if strings.Contains(strings.TrimSpace(opt.Text()), systemName) {
				systemValue, _ = opt.Attr("value")
				return false
			}
			return true
		})
		if systemValue == "" {
			return true
		}

		sel.Find("input[type=\"hidden\"]").Each(func(_ int, input *goquery.Selection) {
			name, _ := input.Attr("name")
			value, _ := input.Attr("value")
			if name != "" {
				form.Set(name, value)
			}
		})
		form.Set("system_selection", systemValue)
		form.Set("valid", "true")
		action, _ = sel.Attr("action")
		found = true
		return false
	})

	if !found {
		return nil, "", fmt.Errorf("system %q not offered on daily page", systemName)
	}
	if action == "" {
		action = pageURL
	} else if !strings.HasPrefix(action, "http") {
		action = c.BaseURL + "/" + strings.TrimPrefix(action, "/")
	}
	return form, action, nil
}

func (c *NoIntroClient) submitForm(ctx context.Context, action string, form url.Values) ([]byte, error) {
	return c.submitFormDepth(ctx, action, form, 0)
}

func (c *NoIntroClient) submitFormDepth(ctx context.Context, action string, form url.Values, depth int) ([]byte, error) {
	if depth > 2 {
		return nil, fmt.Errorf("download did not converge after %d confirmation pages", depth)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit download form: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("submit download form: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}

	// Some responses interpose a confirmation page with a second form.
	if looksLikeHTML(body) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse confirmation page: %w", err)
		}
		confirm := url.Values{}
		doc.Find("form input[type=\"hidden\"]").Each(func(_ int, input *goquery.Selection) {
			name, _ := input.Attr("name")
			value, _ := input.Attr("value")
			if name != "" {
				confirm.Set(name, value)
			}
		})
		if len(confirm) == 0 {
			return nil, fmt.Errorf("download returned html without a confirmation form")
		}
		return c.submitFormDepth(ctx, action, confirm, depth+1)
	}

	return body, nil
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<")) && !bytes.HasPrefix(trimmed, []byte("<?xml"))
}
