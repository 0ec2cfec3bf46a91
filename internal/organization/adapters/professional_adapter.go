package adapters

import (
	"context"

	"clinic/internal/organization/models"
	professionalModels "clinic/internal/professional/models"
	id "clinic/pkg/domain"
)

// ProfessionalFinder is implemented by the professional store and service.
type ProfessionalFinder interface {
	FindByIDs(ctx context.Context, ids []id.ProfessionalID) ([]*professionalModels.Professional, error)
}

// BoardNames resolves the registration board of a professional type.
type BoardNames interface {
	Board(t professionalModels.Type) string
}

// ProfessionalAdapter adapts the professional module to the organization
// service's Professionals interface.
type ProfessionalAdapter struct {
	finder ProfessionalFinder
	boards BoardNames
}

func NewProfessionalAdapter(finder ProfessionalFinder, boards BoardNames) *ProfessionalAdapter {
	return &ProfessionalAdapter{finder: finder, boards: boards}
}

// Summaries loads the professionals in ids mapped to roster summaries.
func (a *ProfessionalAdapter) Summaries(ctx context.Context, ids []id.ProfessionalID) ([]models.ProfessionalSummary, error) {
	professionals, err := a.finder.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]models.ProfessionalSummary, len(professionals))
	for i, p := range professionals {
		result[i] = a.mapProfessional(p)
	}
	return result, nil
}

func (a *ProfessionalAdapter) mapProfessional(p *professionalModels.Professional) models.ProfessionalSummary {
	summary := models.ProfessionalSummary{
		ID:                 p.ID,
		Name:               p.Name,
		Type:               string(p.Type),
		Board:              a.boards.Board(p.Type),
		RegistrationNumber: p.RegistrationNumber,
		Document:           p.FormattedDocument(),
		Email:              p.Email,
		Active:             p.IsActive(),
	}
	if phone, ok := p.PrincipalPhone(); ok {
		summary.Phone = phone.Formatted()
	}
	return summary
}
