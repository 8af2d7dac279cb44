package backend

import (
	"context"
	"strconv"
)

// Setting is one configuration entry. Values are dynamically typed; the
// ValueType field names the wire type so forms can render the right input.
type Setting struct {
	SettingKey     int    `json:"setting_key"`
	SettingKeyName string `json:"setting_key_name"`
	SettingValue   any    `json:"setting_value"`
	Group          string `json:"group"`
	ValueType      string `json:"value_type"`
	IsDefault      bool   `json:"is_default"`
}

// SettingGroup is the settings of one section.
type SettingGroup struct {
	Group     string    `json:"group"`
	GroupCode int       `json:"group_code"`
	Settings  []Setting `json:"settings"`
}

type settingGroups struct {
	Groups []SettingGroup `json:"groups"`
}

// SettingUpdate sets one setting's value.
type SettingUpdate struct {
	SettingKey   int `json:"setting_key"`
	SettingValue any `json:"setting_value"`
}

// AllSettings fetches every global setting, grouped by section.
func (c *Client) AllSettings(ctx context.Context) ([]SettingGroup, error) {
	var res settingGroups
	if err := c.get(ctx, "/settings/", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Groups, nil
}

// SettingDetail fetches one global setting by key.
func (c *Client) SettingDetail(ctx context.Context, settingKey int) (*Setting, error) {
	var setting Setting
	if err := c.get(ctx, "/settings/"+strconv.Itoa(settingKey), nil, nil, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpdateSetting sets one global setting.
func (c *Client) UpdateSetting(ctx context.Context, req SettingUpdate) (*Setting, error) {
	var setting Setting
	if err := c.post(ctx, "/settings/update", nil, nil, req, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// ResetSetting restores one global setting to its default.
func (c *Client) ResetSetting(ctx context.Context, settingKey int) (*Setting, error) {
	var setting Setting
	if err := c.post(ctx, "/settings/"+strconv.Itoa(settingKey)+"/reset", nil, nil, nil, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// SettingGroupDetail fetches one section of settings by group code.
func (c *Client) SettingGroupDetail(ctx context.Context, groupCode int) (*SettingGroup, error) {
	var group SettingGroup
	if err := c.get(ctx, "/settings/group/"+strconv.Itoa(groupCode), nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}
