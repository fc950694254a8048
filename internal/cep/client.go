// Package cep resolves Brazilian postal codes through the ViaCEP API. The
// lookup is advisory autofill for the checkout form: a failure is reported
// to the caller and never blocks manual entry of the street.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrInvalid  = errors.New("invalid cep")
	ErrNotFound = errors.New("cep not found")
)

const DefaultBaseURL = "https://viacep.com.br"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Address is the subset of the ViaCEP payload the checkout form fills in.
type Address struct {
	Street     string `json:"street"`
	Complement string `json:"complement"`
}

// Normalize strips formatting from a postal code and requires exactly eight
// digits, so "01001-000" and "01001000" look up the same way.
func Normalize(raw string) (string, error) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) != 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return string(digits), nil
}

func (c *Client) Lookup(ctx context.Context, rawCEP string) (*Address, error) {
	code, err := Normalize(rawCEP)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/ws/%s/json/", c.baseURL, code),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Logradouro  string `json:"logradouro"`
		Complemento string `json:"complemento"`
		Erro        bool   `json:"erro,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// ViaCEP answers 200 with {"erro": true} for unknown codes
	if result.Erro {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	return &Address{
		Street:     result.Logradouro,
		Complement: result.Complemento,
	}, nil
}
