package backend

import (
	"context"
	"strconv"
)

// User is a registered end user, tied to the activation code they
// redeemed.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	ActivationCode string `json:"activation_code"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// UserQuery filters the user list.
type UserQuery struct {
	PageQuery
	Username       string `json:"username,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	ActivationCode string `json:"activation_code,omitempty"`
}

// UserRegister creates a user from a distributed activation code.
type UserRegister struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	ActivationCode string `json:"activation_code"`
}

// UserUpdate changes a user's contact details.
type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ListUsers fetches one page of users.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*PageResult[User], error) {
	var page PageResult[User]
	if err := c.post(ctx, "/users/pageList", nil, nil, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RegisterUser creates a user, consuming the given activation code.
func (c *Client) RegisterUser(ctx context.Context, req UserRegister) (*User, error) {
	var user User
	if err := c.post(ctx, "/users/register", nil, nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser fetches the user bound to the bearer token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes a user's contact details.
func (c *Client) UpdateUser(ctx context.Context, userID int64, req UserUpdate) (*User, error) {
	var user User
	params := PathParams{"user_id": strconv.FormatInt(userID, 10)}
	if err := c.put(ctx, "/users/{user_id}", params, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
