package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// BackendClient reads balances, token lists and prices from the wallet backend service.
// Every endpoint answers with the requested field or with {"error": "..."}.
type BackendClient struct {
	baseURL string
	client  *http.Client
}

func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type backendResponse struct {
	Balance json.RawMessage `json:"balance"`
	Price   json.RawMessage `json:"price"`
	Tokens  []backendToken  `json:"tokens"`
	Error   string          `json:"error"`
}

type backendToken struct {
	Mint    string          `json:"mint"`
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name"`
	Logo    string          `json:"logo"`
	Balance json.RawMessage `json:"balance"`
}

// GetSOLBalance returns the SOL balance of address in whole SOL.
func (c *BackendClient) GetSOLBalance(ctx context.Context, address string) (float64, error) {
	resp, err := c.get(ctx, "/api/sol-balance/"+url.PathEscape(address))
	if err != nil {
		return 0, err
	}
	return parseLooseFloat(resp.Balance)
}

// GetSOLPriceUSD returns SOL/USD as reported by the backend.
func (c *BackendClient) GetSOLPriceUSD(ctx context.Context) (float64, error) {
	resp, err := c.get(ctx, "/api/sol-price")
	if err != nil {
		return 0, err
	}
	return parseLooseFloat(resp.Price)
}

// GetTokenBalances lists SPL token balances of address. Missing labels get placeholder names.
func (c *BackendClient) GetTokenBalances(ctx context.Context, address string) ([]model.Token, error) {
	resp, err := c.get(ctx, "/api/token-balances/"+url.PathEscape(address))
	if err != nil {
		return nil, err
	}

	tokens := make([]model.Token, 0, len(resp.Tokens))
	for _, t := range resp.Tokens {
		balance, _ := parseLooseFloat(t.Balance) // unparsable balances show as 0
		token := model.Token{
			Mint:    t.Mint,
			Symbol:  t.Symbol,
			Name:    t.Name,
			Logo:    t.Logo,
			Balance: balance,
		}
		if token.Symbol == "" {
			token.Symbol = "Unknown"
		}
		if token.Name == "" {
			token.Name = "Unknown Token"
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (c *BackendClient) get(ctx context.Context, path string) (*backendResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	var out backendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("backend request failed: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}
	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend request failed: status %d", resp.StatusCode)
	}
	return &out, nil
}

// parseLooseFloat accepts a JSON number or a numeric string.
func parseLooseFloat(raw json.RawMessage) (float64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, errors.New("value missing in backend response")
	}
	return strconv.ParseFloat(s, 64)
}
