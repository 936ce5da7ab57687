package api

import (
	"context"
	"fmt"

	"huahuacuna/internal/models"
)

// ChildrenService handles the child roster. Every call requires a client
// obtained from WithToken.
type ChildrenService struct {
	client *Client
}

// List returns all children, or only those in status when it is set
func (s *ChildrenService) List(ctx context.Context, status models.ChildStatus) ([]models.Child, error) {
	var children []models.Child
	if err := s.client.get(ctx, s.client.endpoints.Children(status), &children); err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// Get returns one child
func (s *ChildrenService) Get(ctx context.Context, id int64) (*models.Child, error) {
	var child models.Child
	if err := s.client.get(ctx, s.client.endpoints.Child(id), &child); err != nil {
		return nil, fmt.Errorf("failed to get child %d: %w", id, err)
	}
	return &child, nil
}

// Create registers a new child; the backend assigns the id
func (s *ChildrenService) Create(ctx context.Context, req models.CreateChildRequest) (*models.Child, error) {
	var child models.Child
	if err := s.client.post(ctx, s.client.endpoints.Children(""), req, &child); err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return &child, nil
}

// Update replaces the editable fields. Status is not part of the body.
func (s *ChildrenService) Update(ctx context.Context, id int64, req models.UpdateChildRequest) (*models.Child, error) {
	var child models.Child
	if err := s.client.put(ctx, s.client.endpoints.Child(id), req, &child); err != nil {
		return nil, fmt.Errorf("failed to update child %d: %w", id, err)
	}
	return &child, nil
}

// ChangeStatus moves a child to newStatus
func (s *ChildrenService) ChangeStatus(ctx context.Context, id int64, newStatus models.ChildStatus) (*models.Child, error) {
	var child models.Child
	body := models.ChangeStatusRequest{NewStatus: newStatus}
	if err := s.client.patch(ctx, s.client.endpoints.ChildStatus(id), body, &child); err != nil {
		return nil, fmt.Errorf("failed to change status of child %d: %w", id, err)
	}
	return &child, nil
}

// Delete removes a child
func (s *ChildrenService) Delete(ctx context.Context, id int64) error {
	if err := s.client.delete(ctx, s.client.endpoints.Child(id)); err != nil {
		return fmt.Errorf("failed to delete child %d: %w", id, err)
	}
	return nil
}
