package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clinic/internal/organization/models"
	"clinic/internal/platform/postgres"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
)

const orgColumns = "id, trade_name, legal_name, cnpj, state, created_at, updated_at"

// PostgresStore persists organizations across the organizations,
// organization_phones and organization_professionals tables. Writes touch
// several tables; run them inside tx.Runner.
type PostgresStore struct {
	db     *sql.DB
	runner *tx.SQLRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: tx.NewSQLRunner(db, 0)}
}

func (s *PostgresStore) Create(ctx context.Context, org *models.Organization) error {
	q := tx.Executor(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO organizations (id, trade_name, legal_name, cnpj, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(org.ID), org.TradeName, org.LegalName, org.CNPJ, string(org.State), org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return s.writeChildren(ctx, q, org)
}

func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	q := tx.Executor(ctx, s.db)
	org, err := scanOrganization(q.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, uuid.UUID(orgID)))
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	if err := s.loadChildren(ctx, q, []*models.Organization{org}); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *PostgresStore) Find(ctx context.Context, filter models.Filter) ([]*models.Organization, error) {
	var (
		where []string
		args  []any
	)
	if filter.State != "" {
		args = append(args, string(filter.State))
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.CNPJ != "" {
		args = append(args, filter.CNPJ)
		where = append(where, fmt.Sprintf("cnpj = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, postgres.ContainsPattern(filter.Name))
		where = append(where, fmt.Sprintf("(unaccent(trade_name) ILIKE unaccent($%[1]d) OR unaccent(legal_name) ILIKE unaccent($%[1]d))", len(args)))
	}

	query := `SELECT ` + orgColumns + ` FROM organizations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := filter.Page()
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY trade_name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	q := tx.Executor(ctx, s.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	orgs := []*models.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	if err := s.loadChildren(ctx, q, orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Execute locks the organization row with SELECT ... FOR UPDATE, loads its
// phones and links, applies fn and rewrites the aggregate before the lock is
// released.
func (s *PostgresStore) Execute(ctx context.Context, orgID id.OrganizationID, fn func(*models.Organization) error) (*models.Organization, error) {
	var org *models.Organization
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Executor(ctx, s.db)
		current, err := scanOrganization(q.QueryRowContext(ctx,
			`SELECT `+orgColumns+` FROM organizations WHERE id = $1 FOR UPDATE`, uuid.UUID(orgID)))
		if err != nil {
			return fmt.Errorf("lock organization: %w", err)
		}
		if err := s.loadChildren(ctx, q, []*models.Organization{current}); err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := s.update(ctx, q, current); err != nil {
			return err
		}
		org = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *PostgresStore) update(ctx context.Context, q tx.Querier, org *models.Organization) error {
	res, err := q.ExecContext(ctx, `
		UPDATE organizations
		SET trade_name = $2, legal_name = $3, cnpj = $4, state = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(org.ID), org.TradeName, org.LegalName, org.CNPJ, string(org.State), org.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update organization: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM organization_phones WHERE organization_id = $1`, uuid.UUID(org.ID)); err != nil {
		return fmt.Errorf("clear organization phones: %w", err)
	}
	return s.writeChildren(ctx, q, org)
}

func (s *PostgresStore) writeChildren(ctx context.Context, q tx.Querier, org *models.Organization) error {
	for _, p := range org.Phones {
		_, err := q.ExecContext(ctx, `
			INSERT INTO organization_phones (id, organization_id, ddi, ddd, number, is_principal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.UUID(p.ID), uuid.UUID(org.ID), p.DDI, p.DDD, p.Number, p.Principal, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert organization phone: %w", err)
		}
	}
	for _, l := range org.Professionals {
		_, err := q.ExecContext(ctx, `
			INSERT INTO organization_professionals (organization_id, professional_id, state, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (organization_id, professional_id)
			DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
			uuid.UUID(org.ID), uuid.UUID(l.ProfessionalID), string(l.State), l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert organization professional: %w", err)
		}
	}
	return nil
}

// loadChildren fills phones and professional links for orgs with one query per table.
func (s *PostgresStore) loadChildren(ctx context.Context, q tx.Querier, orgs []*models.Organization) error {
	if len(orgs) == 0 {
		return nil
	}
	byID := make(map[id.OrganizationID]*models.Organization, len(orgs))
	ids := make([]string, len(orgs))
	for i, org := range orgs {
		org.Phones = []*models.OrganizationPhone{}
		org.Professionals = []*models.OrganizationProfessional{}
		byID[org.ID] = org
		ids[i] = org.ID.String()
	}

	rows, err := q.QueryContext(ctx, `
		SELECT organization_id, id, ddi, ddd, number, is_principal, created_at, updated_at
		FROM organization_phones
		WHERE organization_id = ANY($1)
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load organization phones: %w", err)
	}
	for rows.Next() {
		var (
			orgID, phoneID uuid.UUID
			p              models.OrganizationPhone
		)
		if err := rows.Scan(&orgID, &phoneID, &p.DDI, &p.DDD, &p.Number, &p.Principal, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan organization phone: %w", err)
		}
		p.Phone.ID = id.PhoneID(phoneID)
		if org := byID[id.OrganizationID(orgID)]; org != nil {
			org.Phones = append(org.Phones, &p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate organization phones: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT organization_id, professional_id, state, created_at, updated_at
		FROM organization_professionals
		WHERE organization_id = ANY($1)
		ORDER BY created_at, professional_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load organization professionals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orgID, professionalID uuid.UUID
			state                 string
			l                     models.OrganizationProfessional
		)
		if err := rows.Scan(&orgID, &professionalID, &state, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return fmt.Errorf("scan organization professional: %w", err)
		}
		l.ProfessionalID = id.ProfessionalID(professionalID)
		l.State = models.State(state)
		if org := byID[id.OrganizationID(orgID)]; org != nil {
			org.Professionals = append(org.Professionals, &l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate organization professionals: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var (
		org   models.Organization
		orgID uuid.UUID
		state string
	)
	err := row.Scan(&orgID, &org.TradeName, &org.LegalName, &org.CNPJ, &state, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	org.ID = id.OrganizationID(orgID)
	org.State = models.State(state)
	org.Phones = []*models.OrganizationPhone{}
	org.Professionals = []*models.OrganizationProfessional{}
	return &org, nil
}
