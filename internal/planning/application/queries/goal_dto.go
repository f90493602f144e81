package queries

import (
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/google/uuid"
)

// MicroGoalDTO is a data transfer object for micro-goals.
type MicroGoalDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	OrderIndex  int              `json:"order_index"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Criteria    *domain.Criteria `json:"criteria,omitempty"`
}

// GoalDTO is a data transfer object for goals.
type GoalDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Status      string          `json:"status"`
	Plan        *domain.Plan    `json:"plan,omitempty"`
	Progress    domain.Progress `json:"progress"`
	MicroGoals  []MicroGoalDTO  `json:"micro_goals"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToGoalDTO converts a goal aggregate into its read model.
func ToGoalDTO(g *domain.Goal) GoalDTO {
	dto := GoalDTO{
		ID:          g.ID(),
		Name:        g.Name(),
		Category:    g.Category(),
		Description: g.Description(),
		TargetDate:  g.TargetDate(),
		Status:      string(g.Status()),
		Plan:        g.Plan(),
		Progress:    g.Progress(),
		MicroGoals:  make([]MicroGoalDTO, 0, len(g.MicroGoals())),
		CreatedAt:   g.CreatedAt(),
		UpdatedAt:   g.UpdatedAt(),
	}
	for _, m := range g.MicroGoals() {
		dto.MicroGoals = append(dto.MicroGoals, MicroGoalDTO{
			ID:          m.ID(),
			Name:        m.Name(),
			OrderIndex:  m.OrderIndex(),
			CompletedAt: m.CompletedAt(),
			Criteria:    m.Criteria(),
		})
	}
	return dto
}
