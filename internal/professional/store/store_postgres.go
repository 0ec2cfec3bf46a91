package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clinic/internal/platform/postgres"
	"clinic/internal/professional/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
)

const professionalColumns = "id, type, name, document, rg, birth_date, gender, state, registration_number, email, created_at, updated_at"

// PostgresStore persists professionals across the professionals,
// professional_phones and professional_addresses tables. Writes touch
// several tables; run them inside tx.Runner.
type PostgresStore struct {
	db     *sql.DB
	runner *tx.SQLRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: tx.NewSQLRunner(db, 0)}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Professional) error {
	q := tx.Executor(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO professionals (`+professionalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(p.ID), string(p.Type), p.Name, p.Document, p.RG, birthDate(p),
		string(p.Gender), string(p.State), p.RegistrationNumber, p.Email, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert professional: %w", err)
	}
	return s.writeChildren(ctx, q, p)
}

func (s *PostgresStore) FindByID(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	q := tx.Executor(ctx, s.db)
	p, err := scanProfessional(q.QueryRowContext(ctx,
		`SELECT `+professionalColumns+` FROM professionals WHERE id = $1`, uuid.UUID(professionalID)))
	if err != nil {
		return nil, fmt.Errorf("find professional: %w", err)
	}
	if err := s.loadChildren(ctx, q, []*models.Professional{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByIDs returns the professionals that exist among ids, ordered by name.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.ProfessionalID) ([]*models.Professional, error) {
	if len(ids) == 0 {
		return []*models.Professional{}, nil
	}
	raw := make([]string, len(ids))
	for i, professionalID := range ids {
		raw[i] = professionalID.String()
	}
	return s.query(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE id = ANY($1) ORDER BY name, id`, pq.Array(raw))
}

func (s *PostgresStore) Find(ctx context.Context, filter models.Filter) ([]*models.Professional, error) {
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, string(filter.State))
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.Document != "" {
		args = append(args, filter.Document)
		where = append(where, fmt.Sprintf("document = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, postgres.ContainsPattern(filter.Name))
		where = append(where, fmt.Sprintf("unaccent(name) ILIKE unaccent($%d)", len(args)))
	}

	query := `SELECT ` + professionalColumns + ` FROM professionals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := filter.Page()
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Professional, error) {
	q := tx.Executor(ctx, s.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	professionals := []*models.Professional{}
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		professionals = append(professionals, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate professionals: %w", err)
	}
	if err := s.loadChildren(ctx, q, professionals); err != nil {
		return nil, err
	}
	return professionals, nil
}

// Execute locks the professional row with SELECT ... FOR UPDATE, loads its
// phones and addresses, applies fn and rewrites the aggregate before the
// lock is released.
func (s *PostgresStore) Execute(ctx context.Context, professionalID id.ProfessionalID, fn func(*models.Professional) error) (*models.Professional, error) {
	var p *models.Professional
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		q := tx.Executor(ctx, s.db)
		current, err := scanProfessional(q.QueryRowContext(ctx,
			`SELECT `+professionalColumns+` FROM professionals WHERE id = $1 FOR UPDATE`, uuid.UUID(professionalID)))
		if err != nil {
			return fmt.Errorf("lock professional: %w", err)
		}
		if err := s.loadChildren(ctx, q, []*models.Professional{current}); err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := s.update(ctx, q, current); err != nil {
			return err
		}
		p = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) update(ctx context.Context, q tx.Querier, p *models.Professional) error {
	res, err := q.ExecContext(ctx, `
		UPDATE professionals
		SET name = $2, document = $3, rg = $4, birth_date = $5, gender = $6, state = $7,
		    registration_number = $8, email = $9, updated_at = $10
		WHERE id = $1`,
		uuid.UUID(p.ID), p.Name, p.Document, p.RG, birthDate(p), string(p.Gender), string(p.State),
		p.RegistrationNumber, p.Email, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update professional: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM professional_phones WHERE professional_id = $1`, uuid.UUID(p.ID)); err != nil {
		return fmt.Errorf("clear professional phones: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM professional_addresses WHERE professional_id = $1`, uuid.UUID(p.ID)); err != nil {
		return fmt.Errorf("clear professional addresses: %w", err)
	}
	return s.writeChildren(ctx, q, p)
}

func (s *PostgresStore) writeChildren(ctx context.Context, q tx.Querier, p *models.Professional) error {
	for _, ph := range p.Phones {
		_, err := q.ExecContext(ctx, `
			INSERT INTO professional_phones (id, professional_id, ddi, ddd, number, is_principal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.UUID(ph.ID), uuid.UUID(p.ID), ph.DDI, ph.DDD, ph.Number, ph.Principal, ph.CreatedAt, ph.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert professional phone: %w", err)
		}
	}
	for _, a := range p.Addresses {
		_, err := q.ExecContext(ctx, `
			INSERT INTO professional_addresses
				(id, professional_id, street, number, complement, district, zip_code, city, state, is_principal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.UUID(a.ID), uuid.UUID(p.ID), a.Street, a.Number, a.Complement, a.District, a.ZipCode,
			a.City, string(a.State), a.Principal, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert professional address: %w", err)
		}
	}
	return nil
}

// loadChildren fills phones and addresses for professionals with one query per table.
func (s *PostgresStore) loadChildren(ctx context.Context, q tx.Querier, professionals []*models.Professional) error {
	if len(professionals) == 0 {
		return nil
	}
	byID := make(map[id.ProfessionalID]*models.Professional, len(professionals))
	ids := make([]string, len(professionals))
	for i, p := range professionals {
		p.Phones = []*models.ProfessionalPhone{}
		p.Addresses = []*models.ProfessionalAddress{}
		byID[p.ID] = p
		ids[i] = p.ID.String()
	}

	rows, err := q.QueryContext(ctx, `
		SELECT professional_id, id, ddi, ddd, number, is_principal, created_at, updated_at
		FROM professional_phones
		WHERE professional_id = ANY($1)
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load professional phones: %w", err)
	}
	for rows.Next() {
		var (
			professionalID, phoneID uuid.UUID
			ph                      models.ProfessionalPhone
		)
		if err := rows.Scan(&professionalID, &phoneID, &ph.DDI, &ph.DDD, &ph.Number, &ph.Principal, &ph.CreatedAt, &ph.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan professional phone: %w", err)
		}
		ph.Phone.ID = id.PhoneID(phoneID)
		if p := byID[id.ProfessionalID(professionalID)]; p != nil {
			p.Phones = append(p.Phones, &ph)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate professional phones: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT professional_id, id, street, number, complement, district, zip_code, city, state, is_principal, created_at, updated_at
		FROM professional_addresses
		WHERE professional_id = ANY($1)
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load professional addresses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			professionalID, addressID uuid.UUID
			state                     string
			a                         models.ProfessionalAddress
		)
		err := rows.Scan(&professionalID, &addressID, &a.Street, &a.Number, &a.Complement, &a.District,
			&a.ZipCode, &a.City, &state, &a.Principal, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("scan professional address: %w", err)
		}
		a.Address.ID = id.AddressID(addressID)
		a.Address.State = id.FederativeUnit(state)
		if p := byID[id.ProfessionalID(professionalID)]; p != nil {
			p.Addresses = append(p.Addresses, &a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate professional addresses: %w", err)
	}
	return nil
}

func birthDate(p *models.Professional) sql.NullTime {
	if p.BirthDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p.BirthDate, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfessional(row rowScanner) (*models.Professional, error) {
	var (
		p                  models.Professional
		professionalID     uuid.UUID
		typ, gender, state string
		birth              sql.NullTime
	)
	err := row.Scan(&professionalID, &typ, &p.Name, &p.Document, &p.RG, &birth, &gender, &state,
		&p.RegistrationNumber, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	p.ID = id.ProfessionalID(professionalID)
	p.Type = models.Type(typ)
	p.Gender = models.Gender(gender)
	p.Person.State = models.State(state)
	if birth.Valid {
		t := birth.Time.UTC()
		p.BirthDate = &t
	}
	p.Phones = []*models.ProfessionalPhone{}
	p.Addresses = []*models.ProfessionalAddress{}
	return &p, nil
}
