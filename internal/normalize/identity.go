package normalize

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ebayTrackingParams is the fixed set of affiliate/session query parameters
// stripped during canonicalization. Two listings for the same physical item
// reached through different tracking strings collapse to one identity.
var ebayTrackingParams = map[string]struct{}{
	"amdata": {}, "campgate": {}, "campid": {}, "chn": {}, "customid": {},
	"epid": {}, "frcectry": {}, "hash": {}, "imprid": {}, "itmmeta": {},
	"loc": {}, "mkcid": {}, "mkevt": {}, "mknod": {}, "mkrid": {},
	"mksiteid": {}, "mpre": {}, "nma": {}, "norover": {}, "norvid": {},
	"osub": {}, "pmt": {}, "plmt": {}, "rt": {}, "rvr_id": {},
	"segname": {}, "siteid": {}, "skw": {}, "sojtags": {}, "toolid": {},
	"ul_noapp": {}, "ul_ref": {}, "var": {}, "_skw": {}, "_trkparms": {},
	"_trksid": {},
}

var (
	ebayV1IDPattern      = regexp.MustCompile(`^v\d\|(\d{9,})\|\d+$`)
	ebayNumericIDPattern = regexp.MustCompile(`^(\d{9,})$`)
	ebayHashPattern      = regexp.MustCompile(`item([0-9a-fA-F]+)`)
	ebayURLIDPattern     = regexp.MustCompile(`(?i)/itm/(?:[^/]*-)?([0-9a-fA-F]{9,})`)
)

// CanonicalIdentity returns a stable (id, url) pair for a raw listing payload.
// Marketplace URLs are detected by hostname; the stable item identifier is
// recovered in a fixed precedence order (explicit ID, /itm/ path pattern,
// encoded hash fragment, named query parameter) with a slug of the canonical
// URL as the last resort. Non-marketplace listings pass through untouched.
func CanonicalIdentity(rawID, rawURL, source string) (string, string) {
	urlText := strings.TrimSpace(rawURL)
	if urlText == "" {
		return rawID, urlText
	}
	parsed, err := url.Parse(urlText)
	if err != nil {
		return rawID, urlText
	}
	host := strings.ToLower(parsed.Host)
	isEbay := strings.EqualFold(source, "ebay") ||
		strings.HasSuffix(host, "ebay.com") ||
		strings.Contains(host, ".ebay.")
	if !isEbay {
		return rawID, urlText
	}

	canonical, pairs := canonicalizeEbayURL(parsed)
	if identifier := extractEbayIdentifier(rawID, parsed.Path, pairs); identifier != "" {
		return "ebay-" + identifier, canonical
	}
	slugSource := parsed.Path
	if slugSource == "" {
		slugSource = canonical
	}
	slug := Slugify("ebay-" + slugSource)
	if slug == "item" {
		slug = Slugify("ebay-" + urlText)
	}
	if slug == "item" {
		return rawID, canonical
	}
	return slug, canonical
}

type queryPair struct {
	key   string
	value string
}

// canonicalizeEbayURL strips tracking parameters, lowercases the host, trims
// the trailing slash, and re-serializes the surviving query sorted by key so
// the result is deterministic. The original pairs are returned for identifier
// extraction.
func canonicalizeEbayURL(parsed *url.URL) (string, []queryPair) {
	original := make([]queryPair, 0, 8)
	filtered := make([]queryPair, 0, 8)
	for _, fragment := range strings.Split(parsed.RawQuery, "&") {
		if fragment == "" {
			continue
		}
		key, value, _ := strings.Cut(fragment, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		pair := queryPair{key: decodedKey, value: decodedValue}
		original = append(original, pair)
		if _, tracked := ebayTrackingParams[strings.ToLower(decodedKey)]; tracked {
			continue
		}
		filtered = append(filtered, pair)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].key < filtered[j].key })

	query := url.Values{}
	for _, pair := range filtered {
		query.Add(pair.key, pair.value)
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	rebuilt := url.URL{
		Scheme:   scheme,
		Host:     strings.ToLower(parsed.Host),
		Path:     strings.TrimRight(parsed.Path, "/"),
		RawQuery: query.Encode(),
	}
	return rebuilt.String(), original
}

func extractEbayIdentifier(rawID, path string, pairs []queryPair) string {
	queryMap := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		queryMap[strings.ToLower(pair.key)] = pair.value
	}

	// 1. Explicit ID field: "v1|123456789|0", bare numeric, or "ebay-" prefixed.
	identifier := ""
	trimmed := strings.TrimSpace(rawID)
	if match := ebayV1IDPattern.FindStringSubmatch(trimmed); match != nil {
		identifier = match[1]
	} else {
		candidate := trimmed
		if strings.HasPrefix(strings.ToLower(candidate), "ebay-") {
			candidate = candidate[len("ebay-"):]
		}
		if match := ebayNumericIDPattern.FindStringSubmatch(candidate); match != nil {
			identifier = match[1]
		}
	}
	// An ID that merely echoes the affiliate customid is not a real item ID.
	if identifier != "" && queryMap["customid"] == identifier {
		identifier = ""
	}
	if identifier != "" {
		return identifier
	}

	// 2. /itm/ path pattern.
	if match := ebayURLIDPattern.FindStringSubmatch(path); match != nil {
		return match[1]
	}

	// 3. Encoded "item<hex>" inside the hash parameter.
	if hashValue := queryMap["hash"]; hashValue != "" {
		if match := ebayHashPattern.FindStringSubmatch(hashValue); match != nil {
			return match[1]
		}
	}

	// 4. Named query parameters.
	for _, key := range []string{"item", "itemid", "itemnumber", "itm"} {
		value := queryMap[key]
		if value != "" && isDigits(value) {
			return value
		}
	}
	return ""
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
