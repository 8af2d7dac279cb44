package backend

import "context"

// EnumItem is one code/description pair from the shared enum endpoints.
type EnumItem struct {
	Code int    `json:"code"`
	Desc string `json:"desc"`
}

// SettingOption is one choice of a select-typed setting.
type SettingOption struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// SettingMeta describes one configurable key: its wire type, default and,
// for selects, the allowed options.
type SettingMeta struct {
	Code     int             `json:"code"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Default  any             `json:"default"`
	Options  []SettingOption `json:"options,omitempty"`
	Required bool            `json:"required"`
}

// SettingGroupMeta is the metadata of one settings section.
type SettingGroupMeta struct {
	Code     int           `json:"code"`
	Name     string        `json:"name"`
	Icon     string        `json:"icon,omitempty"`
	Settings []SettingMeta `json:"settings"`
}

// Projects fetches the project enum.
func (c *Client) Projects(ctx context.Context) ([]EnumItem, error) {
	var items []EnumItem
	if err := c.get(ctx, "/common/projects", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Channels fetches the channel enum.
func (c *Client) Channels(ctx context.Context) ([]EnumItem, error) {
	var items []EnumItem
	if err := c.get(ctx, "/common/channels", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SettingsMetadata fetches the schema of every settings group, used to
// render the right form control per key.
func (c *Client) SettingsMetadata(ctx context.Context) ([]SettingGroupMeta, error) {
	var res struct {
		Groups []SettingGroupMeta `json:"groups"`
	}
	if err := c.get(ctx, "/common/settings/metadata", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Groups, nil
}
