package core

import (
	"context"
	"fmt"

	"github.com/platebridge/portal/internal/model"
)

type CompanyService struct {
	db DB
}

func NewCompanyService(db DB) *CompanyService {
	return &CompanyService{db: db}
}

func (s *CompanyService) Create(ctx context.Context, company *model.Company) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO companies (id, name, contact_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		company.ID, company.Name, company.ContactEmail, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *CompanyService) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRow(ctx,
		"SELECT id, name, contact_email, created_at, updated_at FROM companies WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return &c, nil
}

func (s *CompanyService) List(ctx context.Context, limit int, cursor string) ([]model.Company, bool, error) {
	query := `SELECT id, name, contact_email, created_at, updated_at FROM companies`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` WHERE id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate companies: %w", err)
	}

	hasMore := len(companies) > limit
	if hasMore {
		companies = companies[:limit]
	}
	return companies, hasMore, nil
}

func (s *CompanyService) Update(ctx context.Context, company *model.Company) error {
	_, err := s.db.Exec(ctx,
		`UPDATE companies SET name = $1, contact_email = $2, updated_at = now() WHERE id = $3`,
		company.Name, company.ContactEmail, company.ID,
	)
	if err != nil {
		return fmt.Errorf("update company %s: %w", company.ID, err)
	}
	return nil
}

func (s *CompanyService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM companies WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete company %s: %w", id, err)
	}
	return nil
}
