package retailers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// ErrMissingCredentials means a source cannot run because its credentials are
// not configured. The pipeline treats this as a disabled source, not a failure.
var ErrMissingCredentials = errors.New("retailer credentials not configured")

const (
	amazonHost        = "webservices.amazon.com"
	amazonRegion      = "us-east-1"
	amazonService     = "ProductAdvertisingAPI"
	amazonMarketplace = "www.amazon.com"
	amazonTarget      = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
)

// AmazonCredentials holds the PA-API keys and the associate tag.
type AmazonCredentials struct {
	AccessKey    string
	SecretKey    string
	AssociateTag string
}

// Amazon searches the Product Advertising API v5. Requests are SigV4-signed
// the same way every AWS endpoint expects.
type Amazon struct {
	log    *slog.Logger
	client *http.Client
	signer *v4.Signer
	creds  AmazonCredentials
}

// NewAmazon returns the Amazon adapter, or ErrMissingCredentials when any key
// is absent.
func NewAmazon(log *slog.Logger, client *http.Client, creds AmazonCredentials) (*Amazon, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" || creds.AssociateTag == "" {
		return nil, fmt.Errorf("retailers.NewAmazon: %w", ErrMissingCredentials)
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Amazon{log: log, client: client, signer: v4.NewSigner(), creds: creds}, nil
}

func (a *Amazon) Slug() string     { return "amazon" }
func (a *Amazon) Name() string     { return "Amazon" }
func (a *Amazon) CTA() string      { return "View on Amazon" }
func (a *Amazon) Homepage() string { return "https://www.amazon.com" }

// DecorateURL appends the associate tag so outbound clicks attribute.
func (a *Amazon) DecorateURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	query.Set("tag", a.creds.AssociateTag)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

type paapiSearchRequest struct {
	Keywords    string   `json:"Keywords"`
	ItemCount   int      `json:"ItemCount"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
}

type paapiSearchResponse struct {
	SearchResult struct {
		Items []struct {
			ASIN          string `json:"ASIN"`
			DetailPageURL string `json:"DetailPageURL"`
			ItemInfo      struct {
				Title struct {
					DisplayValue string `json:"DisplayValue"`
				} `json:"Title"`
				ByLineInfo struct {
					Brand struct {
						DisplayValue string `json:"DisplayValue"`
					} `json:"Brand"`
				} `json:"ByLineInfo"`
			} `json:"ItemInfo"`
			Images struct {
				Primary struct {
					Large struct {
						URL string `json:"URL"`
					} `json:"Large"`
				} `json:"Primary"`
			} `json:"Images"`
			Offers struct {
				Listings []struct {
					Price struct {
						DisplayAmount string `json:"DisplayAmount"`
					} `json:"Price"`
				} `json:"Listings"`
			} `json:"Offers"`
			CustomerReviews struct {
				StarRating struct {
					Value float64 `json:"Value"`
				} `json:"StarRating"`
				Count int `json:"Count"`
			} `json:"CustomerReviews"`
		} `json:"Items"`
	} `json:"SearchResult"`
}

// SearchItems runs a PA-API SearchItems request for the keywords.
func (a *Amazon) SearchItems(ctx context.Context, keywords []string, count int) ([]RawItem, error) {
	const opn = "retailers.Amazon.SearchItems"

	payload, err := json.Marshal(paapiSearchRequest{
		Keywords:    strings.Join(keywords, " "),
		ItemCount:   count,
		PartnerTag:  a.creds.AssociateTag,
		PartnerType: "Associates",
		Marketplace: amazonMarketplace,
		Resources: []string{
			"ItemInfo.Title",
			"ItemInfo.ByLineInfo",
			"Images.Primary.Large",
			"Offers.Listings.Price",
			"CustomerReviews.StarRating",
			"CustomerReviews.Count",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	endpoint := "https://" + amazonHost + "/paapi5/searchitems"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "amz-1.0")
	req.Header.Set("X-Amz-Target", amazonTarget)

	hash := sha256.Sum256(payload)
	creds := aws.Credentials{AccessKeyID: a.creds.AccessKey, SecretAccessKey: a.creds.SecretKey}
	if err := a.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(hash[:]),
		amazonService, amazonRegion, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%s: failed to sign request: %w", opn, err)
	}

	resp, err := a.client.Do(req)
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

	var decoded paapiSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", opn, err)
	}

	items := make([]RawItem, 0, len(decoded.SearchResult.Items))
	for _, entry := range decoded.SearchResult.Items {
		if entry.ItemInfo.Title.DisplayValue == "" || entry.DetailPageURL == "" {
			continue
		}
		price := ""
		if len(entry.Offers.Listings) > 0 {
			price = entry.Offers.Listings[0].Price.DisplayAmount
		}
		items = append(items, RawItem{
			ID:          entry.ASIN,
			Title:       entry.ItemInfo.Title.DisplayValue,
			URL:         a.DecorateURL(entry.DetailPageURL),
			Image:       entry.Images.Primary.Large.URL,
			Price:       price,
			Brand:       entry.ItemInfo.ByLineInfo.Brand.DisplayValue,
			Rating:      entry.CustomerReviews.StarRating.Value,
			ReviewCount: entry.CustomerReviews.Count,
			Keywords:    keywords,
		})
	}
	a.log.Debug("amazon search complete", "op", opn, "keywords", keywords, "items", len(items))
	return items, nil
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
