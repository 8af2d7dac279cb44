package backend

import (
	"context"
	"net/url"
)

// Activation code lifecycle. A code is created unused, handed out as
// distributed, turned active on redemption and can be voided from either
// of the last two states.
const (
	ActivationStatusUnused      = 0
	ActivationStatusDistributed = 1
	ActivationStatusActivated   = 2
	ActivationStatusInvalidated = 3
)

// Activation code validity classes.
const (
	ActivationTypeDay       = 0
	ActivationTypeMonth     = 1
	ActivationTypeYear      = 2
	ActivationTypePermanent = 3
)

// ActivationCode is one license code with its lifecycle timestamps.
type ActivationCode struct {
	ID             int64  `json:"id"`
	ActivationCode string `json:"activation_code"`
	Type           int    `json:"type"`
	TypeName       string `json:"type_name"`
	Status         int    `json:"status"`
	StatusName     string `json:"status_name"`
	DistributedAt  string `json:"distributed_at,omitempty"`
	ActivatedAt    string `json:"activated_at,omitempty"`
	ExpireTime     string `json:"expire_time,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ActivationQuery filters the code list. The code itself matches exactly,
// timestamps filter as inclusive ranges.
type ActivationQuery struct {
	PageQuery
	Type               *int   `json:"type,omitempty"`
	Status             *int   `json:"status,omitempty"`
	ActivationCode     string `json:"activation_code,omitempty"`
	DistributedAtStart string `json:"distributed_at_start,omitempty"`
	DistributedAtEnd   string `json:"distributed_at_end,omitempty"`
	ActivatedAtStart   string `json:"activated_at_start,omitempty"`
	ActivatedAtEnd     string `json:"activated_at_end,omitempty"`
	ExpireTimeStart    string `json:"expire_time_start,omitempty"`
	ExpireTimeEnd      string `json:"expire_time_end,omitempty"`
}

// ActivationBatchItem asks for count codes of one type. Each type may
// appear at most once per batch.
type ActivationBatchItem struct {
	Type  int `json:"type"`
	Count int `json:"count"`
}

// ActivationBatch requests bulk code generation.
type ActivationBatch struct {
	Items []ActivationBatchItem `json:"items"`
}

// ActivationTypeResult is the generated codes of one type.
type ActivationTypeResult struct {
	Type            int      `json:"type"`
	TypeName        string   `json:"type_name"`
	ActivationCodes []string `json:"activation_codes"`
	Count           int      `json:"count"`
}

// ActivationBatchResult summarises a bulk generation run.
type ActivationBatchResult struct {
	Results    []ActivationTypeResult `json:"results"`
	TotalCount int                    `json:"total_count"`
	Summary    map[string]int         `json:"summary"`
}

// ListActivationCodes fetches one page of codes.
func (c *Client) ListActivationCodes(ctx context.Context, q ActivationQuery) (*PageResult[ActivationCode], error) {
	var page PageResult[ActivationCode]
	if err := c.post(ctx, "/activation/pageList", nil, nil, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// InitActivationCodes bulk-generates fresh codes per type.
func (c *Client) InitActivationCodes(ctx context.Context, req ActivationBatch) (*ActivationBatchResult, error) {
	var result ActivationBatchResult
	if err := c.post(ctx, "/activation/init", nil, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DistributeActivationCodes hands out count unused codes of the given
// type, marking them distributed. It returns the code strings.
func (c *Client) DistributeActivationCodes(ctx context.Context, codeType, count int) ([]string, error) {
	body := map[string]int{"type": codeType, "count": count}
	var codes []string
	if err := c.post(ctx, "/activation/distribute", nil, nil, body, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// InvalidateActivationCode voids a distributed or activated code.
func (c *Client) InvalidateActivationCode(ctx context.Context, code string) error {
	body := map[string]string{"activation_code": code}
	return c.post(ctx, "/activation/invalidate", nil, nil, body, nil)
}

// ActivationCodeDetail fetches one code by its string.
func (c *Client) ActivationCodeDetail(ctx context.Context, code string) (*ActivationCode, error) {
	var detail ActivationCode
	params := PathParams{"activation_code": code}
	if err := c.get(ctx, "/activation/{activation_code}", params, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ActivateCode redeems a distributed code, stamping activation and expiry.
func (c *Client) ActivateCode(ctx context.Context, code string) (*ActivationCode, error) {
	var detail ActivationCode
	query := url.Values{"activation_code": []string{code}}
	if err := c.post(ctx, "/activation/activate", nil, query, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}
