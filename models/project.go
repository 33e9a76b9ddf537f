package models

import "errors"

type Project struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	UserID           int    `json:"userId"` // Foreign key to User model
	TraceflowEnabled bool   `json:"traceflowEnabled"`
}

type ProjectInsert struct {
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	UserID           int    `json:"userId"` // Foreign key to User model
	TraceflowEnabled bool   `json:"traceflowEnabled"`
}

func (p *ProjectInsert) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Domain == "" {
		return errors.New("domain is required")
	}
	if p.UserID <= 0 {
		return errors.New("userId is required")
	}
	return nil
}
