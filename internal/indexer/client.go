package indexer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// Client is a minimal indexer REST client covering paginated transaction
// search.
type Client struct {
	Config Config
	http   *http.Client
}

type Config struct {
	BaseURL string // e.g. http://localhost:8980
	Token   string
}

func NewClient(cfg Config) *Client {
	return &Client{
		Config: cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

// SearchParams are the server-side filters for /v2/transactions. Zero values
// mean the parameter is omitted.
type SearchParams struct {
	Address       string
	AddressRole   string // sender or receiver
	TxType        string
	NotePrefix    []byte
	ApplicationID uint64
	AssetID       uint64

	// Strict currency bounds, matching the indexer's
	// currency-greater-than / currency-less-than semantics.
	CurrencyGreaterThan *uint64
	CurrencyLessThan    *uint64

	MinRound uint64
	MaxRound uint64
	Limit    int
}

func (p *SearchParams) query(next string) url.Values {
	q := url.Values{}
	if p.Address != "" {
		q.Set("address", p.Address)
	}
	if p.AddressRole != "" {
		q.Set("address-role", p.AddressRole)
	}
	if p.TxType != "" {
		q.Set("tx-type", p.TxType)
	}
	if len(p.NotePrefix) > 0 {
		q.Set("note-prefix", base64.StdEncoding.EncodeToString(p.NotePrefix))
	}
	if p.ApplicationID != 0 {
		q.Set("application-id", strconv.FormatUint(p.ApplicationID, 10))
	}
	if p.AssetID != 0 {
		q.Set("asset-id", strconv.FormatUint(p.AssetID, 10))
	}
	if p.CurrencyGreaterThan != nil {
		q.Set("currency-greater-than", strconv.FormatUint(*p.CurrencyGreaterThan, 10))
	}
	if p.CurrencyLessThan != nil {
		q.Set("currency-less-than", strconv.FormatUint(*p.CurrencyLessThan, 10))
	}
	if p.MinRound != 0 {
		q.Set("min-round", strconv.FormatUint(p.MinRound, 10))
	}
	if p.MaxRound != 0 {
		q.Set("max-round", strconv.FormatUint(p.MaxRound, 10))
	}
	if p.Limit != 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if next != "" {
		q.Set("next", next)
	}
	return q
}

type searchResponse struct {
	Transactions []*models.SubscribedTransaction `json:"transactions"`
	NextToken    string                          `json:"next-token"`
	CurrentRound uint64                          `json:"current-round"`
}

// SearchForTransactions runs a transaction search, following pagination
// tokens until the result set is exhausted.
func (c *Client) SearchForTransactions(ctx context.Context, params SearchParams) ([]*models.SubscribedTransaction, error) {
	var all []*models.SubscribedTransaction
	next := ""

	for {
		page, err := c.searchPage(ctx, params, next)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Transactions...)

		if page.NextToken == "" || len(page.Transactions) == 0 {
			return all, nil
		}
		next = page.NextToken
	}
}

func (c *Client) searchPage(ctx context.Context, params SearchParams, next string) (*searchResponse, error) {
	u := c.Config.BaseURL + "/v2/transactions?" + params.query(next).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("indexer: create request: %w", err)
	}
	if c.Config.Token != "" {
		req.Header.Set("X-Indexer-API-Token", c.Config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer: search transactions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("indexer: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[Indexer] transaction search returned HTTP %d", resp.StatusCode)
		return nil, fmt.Errorf("indexer: search transactions: HTTP %d", resp.StatusCode)
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("indexer: unmarshal response: %w", err)
	}
	return &page, nil
}
