package backend

import (
	"context"
	"net/url"
	"strconv"
)

// Account is a managed platform account.
type Account struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	PlatformAccount  string `json:"platform_account,omitempty"`
	PlatformPassword string `json:"platform_password,omitempty"`
	Description      string `json:"description,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// AccountQuery filters the account list. Name matches as a substring.
type AccountQuery struct {
	PageQuery
	UserID *int64 `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// AccountCreate is the payload for a new account.
type AccountCreate struct {
	Name             string `json:"name"`
	PlatformAccount  string `json:"platform_account,omitempty"`
	PlatformPassword string `json:"platform_password,omitempty"`
	Description      string `json:"description,omitempty"`
}

// AccountUpdate changes an existing account. Zero-valued fields are left
// untouched by the backend.
type AccountUpdate struct {
	ID               int64  `json:"id"`
	Name             string `json:"name,omitempty"`
	PlatformAccount  string `json:"platform_account,omitempty"`
	PlatformPassword string `json:"platform_password,omitempty"`
	Description      string `json:"description,omitempty"`
}

// Binding ties an account to a project and a set of channels.
type Binding struct {
	ID           int64    `json:"id"`
	ProjectCode  int      `json:"project_code"`
	ProjectName  string   `json:"project_name"`
	ChannelCodes []int    `json:"channel_codes"`
	ChannelNames []string `json:"channel_names"`
	BrowserID    string   `json:"browser_id,omitempty"`
}

// BindingCreate binds an account to a project's channels.
type BindingCreate struct {
	ProjectCode  int    `json:"project_code"`
	ChannelCodes []int  `json:"channel_codes"`
	BrowserID    string `json:"browser_id,omitempty"`
}

// BindingUpdate rewrites an existing binding.
type BindingUpdate struct {
	ID           int64  `json:"id"`
	ChannelCodes []int  `json:"channel_codes,omitempty"`
	BrowserID    string `json:"browser_id,omitempty"`
}

// ListAccounts fetches one page of accounts.
func (c *Client) ListAccounts(ctx context.Context, q AccountQuery) (*PageResult[Account], error) {
	var page PageResult[Account]
	if err := c.post(ctx, "/accounts/pageList", nil, nil, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateAccount registers a new account.
func (c *Client) CreateAccount(ctx context.Context, req AccountCreate) (*Account, error) {
	var account Account
	if err := c.post(ctx, "/accounts/create", nil, nil, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount applies changes to an account.
func (c *Client) UpdateAccount(ctx context.Context, req AccountUpdate) (*Account, error) {
	var account Account
	if err := c.post(ctx, "/accounts/update", nil, nil, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, id int64) error {
	body := map[string]int64{"id": id}
	return c.post(ctx, "/accounts/delete", nil, nil, body, nil)
}

// ListBindings fetches the project/channel bindings of one account.
// The endpoint spelling is the backend's, typo included.
func (c *Client) ListBindings(ctx context.Context, accountID int64) ([]Binding, error) {
	var bindings []Binding
	params := PathParams{"account_id": strconv.FormatInt(accountID, 10)}
	if err := c.get(ctx, "/accounts/{account_id}/binddings", params, nil, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

// CreateBinding binds the account to a project's channels.
func (c *Client) CreateBinding(ctx context.Context, accountID int64, req BindingCreate) (*Binding, error) {
	var binding Binding
	params := PathParams{"account_id": strconv.FormatInt(accountID, 10)}
	if err := c.post(ctx, "/accounts/{account_id}/binddings/bindding", params, nil, req, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}

// UpdateBinding rewrites a binding's channels or browser.
func (c *Client) UpdateBinding(ctx context.Context, req BindingUpdate) (*Binding, error) {
	var binding Binding
	if err := c.post(ctx, "/accounts/binddings/update", nil, nil, req, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}

// DeleteBinding removes a binding.
func (c *Client) DeleteBinding(ctx context.Context, bindingID int64) error {
	body := map[string]int64{"id": bindingID}
	return c.post(ctx, "/accounts/binddings/unbind", nil, nil, body, nil)
}

// AccountSettings fetches the account's effective settings, defaults
// included, grouped the way the settings page renders them.
func (c *Client) AccountSettings(ctx context.Context, accountID int64) ([]SettingGroup, error) {
	var res settingGroups
	params := PathParams{"account_id": strconv.FormatInt(accountID, 10)}
	if err := c.get(ctx, "/accounts/{account_id}/settings", params, nil, &res); err != nil {
		return nil, err
	}
	return res.Groups, nil
}

// UpdateAccountSetting overrides one setting for the account.
func (c *Client) UpdateAccountSetting(ctx context.Context, accountID int64, req SettingUpdate) (*Setting, error) {
	var setting Setting
	params := PathParams{"account_id": strconv.FormatInt(accountID, 10)}
	if err := c.post(ctx, "/accounts/{account_id}/settings/update", params, nil, req, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// ResetAccountSetting drops the account override so the global value
// applies again.
func (c *Client) ResetAccountSetting(ctx context.Context, accountID int64, settingKey int) (*Setting, error) {
	var setting Setting
	params := PathParams{"account_id": strconv.FormatInt(accountID, 10)}
	query := url.Values{"setting_key": []string{strconv.Itoa(settingKey)}}
	if err := c.post(ctx, "/accounts/{account_id}/settings/reset", params, query, nil, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}
