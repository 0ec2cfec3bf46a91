// Package registry selects the validation and construction strategy of each
// professional type.
package registry

import (
	"fmt"
	"regexp"
	"time"

	"clinic/internal/professional/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

// MaxRegistrationLength bounds CRP and CRN numbers.
const MaxRegistrationLength = 20

// registrationPattern accepts digits with an optional region prefix: "06/123456".
var registrationPattern = regexp.MustCompile(`^\d+(/\d+)?$`)

// Strategy builds and updates professionals of one type.
type Strategy interface {
	Type() models.Type
	// Board is the council that issues the registration number.
	Board() string
	Rules() []models.Rule
	New(professionalID id.ProfessionalID, params models.Params, now time.Time) (*models.Professional, error)
	Update(p *models.Professional, params models.Params, now time.Time) error
}

// Registry maps professional types to their strategies.
// It is immutable after New and safe for concurrent use.
type Registry struct {
	strategies map[models.Type]Strategy
	order      []models.Type
}

// New registers strategies. Registering a type twice is an error.
func New(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[models.Type]Strategy, len(strategies))}
	for _, s := range strategies {
		if _, ok := r.strategies[s.Type()]; ok {
			return nil, fmt.Errorf("professional type %q registered twice", s.Type())
		}
		r.strategies[s.Type()] = s
		r.order = append(r.order, s.Type())
	}
	return r, nil
}

// Default returns a registry with psychologists and nutritionists.
func Default() *Registry {
	r, err := New(Psychologist(), Nutritionist())
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the strategy of t.
// Errors: CodeInvalidInput when t is not registered.
func (r *Registry) Get(t models.Type) (Strategy, error) {
	s, ok := r.strategies[t]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported professional type")
	}
	return s, nil
}

// Types lists the registered types in registration order.
func (r *Registry) Types() []models.Type {
	return append([]models.Type(nil), r.order...)
}

// Board returns the board name of t, or "" when t is not registered.
func (r *Registry) Board(t models.Type) string {
	if s, ok := r.strategies[t]; ok {
		return s.Board()
	}
	return ""
}

// Psychologist requires a CRP registration.
func Psychologist() Strategy {
	return newBoardStrategy(models.TypePsychologist, "CRP", "professional.crp")
}

// Nutritionist requires a CRN registration.
func Nutritionist() Strategy {
	return newBoardStrategy(models.TypeNutritionist, "CRN", "professional.crn")
}

type boardStrategy struct {
	typ   models.Type
	board string
	rules []models.Rule
}

func newBoardStrategy(typ models.Type, board, keyPrefix string) *boardStrategy {
	required := validation.Message{Key: keyPrefix + ".required", Default: board + " is required"}
	tooLong := validation.Message{Key: keyPrefix + ".too_long", Default: board + " must be at most %d characters"}
	invalid := validation.Message{Key: keyPrefix + ".invalid", Default: board + " is invalid"}

	return &boardStrategy{
		typ:   typ,
		board: board,
		rules: []models.Rule{func(p models.Params, c *validation.Collector) {
			switch n := p.RegistrationNumber; {
			case n == "":
				c.Add(required)
			case strings.Length(n) > MaxRegistrationLength:
				c.Add(tooLong, MaxRegistrationLength)
			case !registrationPattern.MatchString(n):
				c.Add(invalid)
			}
		}},
	}
}

func (s *boardStrategy) Type() models.Type    { return s.typ }
func (s *boardStrategy) Board() string        { return s.board }
func (s *boardStrategy) Rules() []models.Rule { return s.rules }

func (s *boardStrategy) New(professionalID id.ProfessionalID, params models.Params, now time.Time) (*models.Professional, error) {
	params.Type = s.typ
	return models.NewProfessional(professionalID, params, now, s.rules...)
}

func (s *boardStrategy) Update(p *models.Professional, params models.Params, now time.Time) error {
	if p.Type != s.typ {
		return dErrors.New(dErrors.CodeInvariantViolation, "professional type mismatch")
	}
	return p.Update(params, now, s.rules...)
}
