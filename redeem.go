package pob

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URLBuilder builds redemption URLs of the form
// <base>/mint/<contract>?key=<privateKey>&index=<i>.
type URLBuilder struct {
	baseURL string
}

// NewURLBuilder validates baseURL and trims any trailing slash.
func NewURLBuilder(baseURL string) (*URLBuilder, error) {
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}
	return &URLBuilder{baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BaseURL returns the normalized base.
func (b *URLBuilder) BaseURL() string {
	return b.baseURL
}

// Build returns one URL per key, in input order, with index i matching the
// key's position.
func (b *URLBuilder) Build(contract string, privateKeys []string) ([]string, error) {
	if contract == "" {
		return nil, ErrInvalidContract
	}
	urls := make([]string, len(privateKeys))
	for i, key := range privateKeys {
		urls[i] = b.URL(contract, key, i)
	}
	return urls, nil
}

// URL builds the redemption URL for a single key.
func (b *URLBuilder) URL(contract, privateKey string, index int) string {
	var sb strings.Builder
	sb.Grow(len(b.baseURL) + len(contract) + len(privateKey) + 24)
	sb.WriteString(b.baseURL)
	sb.WriteString("/mint/")
	sb.WriteString(contract)
	sb.WriteString("?key=")
	sb.WriteString(privateKey)
	sb.WriteString("&index=")
	sb.WriteString(strconv.Itoa(index))
	return sb.String()
}

// ParseRedemptionURL decodes a URL produced by URLBuilder.
func ParseRedemptionURL(raw string) (*Redemption, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRedemptionURL, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: not an absolute URL", ErrInvalidRedemptionURL)
	}

	path := u.EscapedPath()
	i := strings.LastIndex(path, "/mint/")
	if i < 0 {
		return nil, fmt.Errorf("%w: missing /mint/ segment", ErrInvalidRedemptionURL)
	}
	contract := path[i+len("/mint/"):]
	if contract == "" || strings.Contains(contract, "/") {
		return nil, fmt.Errorf("%w: bad contract segment", ErrInvalidRedemptionURL)
	}

	q := u.Query()
	key := q.Get("key")
	if key == "" {
		return nil, fmt.Errorf("%w: missing key", ErrInvalidRedemptionURL)
	}
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil || index < 0 {
		return nil, fmt.Errorf("%w: bad index %q", ErrInvalidRedemptionURL, q.Get("index"))
	}

	base := u.Scheme + "://" + u.Host + path[:i]
	return &Redemption{
		BaseURL:  base,
		Contract: contract,
		Key:      key,
		Index:    index,
	}, nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return ErrInvalidBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %q must not carry a query or fragment", ErrInvalidBaseURL, raw)
	}
	return nil
}
