package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Users lists every account in the system. Admin only.
func (c *Client) Users(ctx context.Context) ([]Account, error) {
	var users []Account
	if err := c.getJSON(ctx, "/v1/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserRole changes an account's role. Admin only.
func (c *Client) UpdateUserRole(ctx context.Context, userID int, role string) (Account, error) {
	body := map[string]string{"role": role}
	var acc Account
	if err := c.sendJSON(ctx, http.MethodPatch, fmt.Sprintf("/v1/admin/users/%d/role", userID), body, &acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// AllAnalyses lists every analysis system-wide. Admin only.
func (c *Client) AllAnalyses(ctx context.Context) ([]Analysis, error) {
	var analyses []Analysis
	if err := c.getJSON(ctx, "/v1/admin/analyses/all", &analyses); err != nil {
		return nil, err
	}
	return analyses, nil
}

// FeedbackMetrics returns the model accuracy aggregates computed from
// diagnostician feedback. Admin only.
func (c *Client) FeedbackMetrics(ctx context.Context) (ModelMetrics, error) {
	var m ModelMetrics
	if err := c.getJSON(ctx, "/v1/admin/model/feedback_metrics", &m); err != nil {
		return ModelMetrics{}, err
	}
	return m, nil
}
