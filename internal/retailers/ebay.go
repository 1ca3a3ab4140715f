package retailers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ebayTokenURL  = "https://api.ebay.com/identity/v1/oauth2/token"
	ebaySearchURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	ebayScope     = "https://api.ebay.com/oauth/api_scope"
)

// EbayCredentials holds the application keys for the client-credentials grant.
type EbayCredentials struct {
	ClientID     string
	ClientSecret string
}

// Ebay searches the Browse API using an application OAuth token. Tokens are
// cached until shortly before expiry.
type Ebay struct {
	log    *slog.Logger
	client *http.Client
	creds  EbayCredentials

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewEbay returns the eBay adapter, or ErrMissingCredentials when the keys
// are absent.
func NewEbay(log *slog.Logger, client *http.Client, creds EbayCredentials) (*Ebay, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("retailers.NewEbay: %w", ErrMissingCredentials)
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Ebay{log: log, client: client, creds: creds}, nil
}

func (e *Ebay) Slug() string     { return "ebay" }
func (e *Ebay) Name() string     { return "eBay" }
func (e *Ebay) CTA() string      { return "View on eBay" }
func (e *Ebay) Homepage() string { return "https://www.ebay.com" }

// DecorateURL passes listings through unchanged; EPN campaign parameters are
// attached by the network, not by us.
func (e *Ebay) DecorateURL(rawURL string) string { return rawURL }

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (e *Ebay) accessToken(ctx context.Context) (string, error) {
	const opn = "retailers.Ebay.accessToken"

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token != "" && time.Now().Before(e.tokenExpiry) {
		return e.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", ebayScope)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ebayTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%s: %w", opn, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(e.creds.ClientID, e.creds.ClientSecret)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", opn, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", opn, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status %d: %s", opn, resp.StatusCode, truncateBody(body))
	}
	var decoded ebayTokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%s: failed to decode token response: %w", opn, err)
	}
	if decoded.AccessToken == "" {
		return "", fmt.Errorf("%s: empty access token in response", opn)
	}

	e.token = decoded.AccessToken
	e.tokenExpiry = time.Now().Add(time.Duration(decoded.ExpiresIn)*time.Second - time.Minute)
	return e.token, nil
}

type ebaySearchResponse struct {
	ItemSummaries []struct {
		ItemID string `json:"itemId"`
		Title  string `json:"title"`
		Image  struct {
			ImageURL string `json:"imageUrl"`
		} `json:"image"`
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
		ItemWebURL string `json:"itemWebUrl"`
		Categories []struct {
			CategoryName string `json:"categoryName"`
		} `json:"categories"`
	} `json:"itemSummaries"`
}

// SearchItems runs a Browse item_summary search for the keywords.
func (e *Ebay) SearchItems(ctx context.Context, keywords []string, count int) ([]RawItem, error) {
	const opn = "retailers.Ebay.SearchItems"

	token, err := e.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	query := url.Values{}
	query.Set("q", strings.Join(keywords, " "))
	query.Set("limit", strconv.Itoa(count))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ebaySearchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", opn, resp.StatusCode, truncateBody(body))
	}

	var decoded ebaySearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", opn, err)
	}

	items := make([]RawItem, 0, len(decoded.ItemSummaries))
	for _, entry := range decoded.ItemSummaries {
		if entry.Title == "" || entry.ItemWebURL == "" {
			continue
		}
		price := ""
		if entry.Price.Value != "" {
			price = "$" + entry.Price.Value
			if entry.Price.Currency != "" && entry.Price.Currency != "USD" {
				price = entry.Price.Value + " " + entry.Price.Currency
			}
		}
		category := ""
		if len(entry.Categories) > 0 {
			category = entry.Categories[0].CategoryName
		}
		items = append(items, RawItem{
			ID:       entry.ItemID,
			Title:    entry.Title,
			URL:      entry.ItemWebURL,
			Image:    entry.Image.ImageURL,
			Price:    price,
			Category: category,
			Keywords: keywords,
		})
	}
	e.log.Debug("ebay search complete", "op", opn, "keywords", keywords, "items", len(items))
	return items, nil
}
