package service

import (
	"errors"
	"testing"

	"story-server/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEvaluateRequirement(t *testing.T) {
	stats := &models.UserStats{
		Affection: 50,
		Level:     10,
		XP:        1200,
		IsPremium: false,
	}
	log := zap.NewNop()

	tests := []struct {
		name string
		req  models.Requirement
		want bool
	}{
		{"affection gte satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonGTE, Value: 50}, true},
		{"affection gte not satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonGTE, Value: 51}, false},
		{"affection lte satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonLTE, Value: 50}, true},
		{"affection lte not satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonLTE, Value: 49}, false},
		{"affection eq satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonEQ, Value: 50}, true},
		{"affection eq not satisfied", models.Requirement{Type: models.RequirementAffection, Comparison: models.ComparisonEQ, Value: 10}, false},
		{"level gte satisfied", models.Requirement{Type: models.RequirementLevel, Comparison: models.ComparisonGTE, Value: 5}, true},
		{"level gte not satisfied", models.Requirement{Type: models.RequirementLevel, Comparison: models.ComparisonGTE, Value: 11}, false},
		{"premium required, user not premium", models.Requirement{Type: models.RequirementPremium, Value: 1}, false},
		{"premium not required, user not premium", models.Requirement{Type: models.RequirementPremium, Value: 0}, true},
		// Неизвестный оператор - permissive pass (ошибка авторинга не блокирует историю)
		{"unknown comparison passes", models.Requirement{Type: models.RequirementAffection, Comparison: "gt", Value: 9999}, true},
		{"unknown type passes", models.Requirement{Type: "charisma", Comparison: models.ComparisonGTE, Value: 9999}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateRequirement(tt.req, stats, log))
		})
	}
}

func TestEvaluateRequirementPremiumUser(t *testing.T) {
	stats := &models.UserStats{IsPremium: true}
	log := zap.NewNop()

	assert.True(t, EvaluateRequirement(models.Requirement{Type: models.RequirementPremium, Value: 1}, stats, log))
	// Точное совпадение bool: требование "не premium" для premium пользователя не проходит
	assert.False(t, EvaluateRequirement(models.Requirement{Type: models.RequirementPremium, Value: 0}, stats, log))
}

func TestCheckChoiceRequirements(t *testing.T) {
	log := zap.NewNop()
	stats := &models.UserStats{Affection: 10, Level: 3}

	t.Run("empty requirement list always passes", func(t *testing.T) {
		choice := &models.Choice{}
		assert.NoError(t, checkChoiceRequirements(choice, stats, log))
	})

	t.Run("first failure short-circuits with its message", func(t *testing.T) {
		choice := &models.Choice{
			Requirements: []models.Requirement{
				{Type: models.RequirementAffection, Comparison: models.ComparisonGTE, Value: 5}, // проходит
				{Type: models.RequirementAffection, Comparison: models.ComparisonGTE, Value: 50, ErrorMessage: "Нужно больше привязанности"},
				{Type: models.RequirementLevel, Comparison: models.ComparisonGTE, Value: 99, ErrorMessage: "Нужен уровень 99"},
			},
		}
		err := checkChoiceRequirements(choice, stats, log)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrRequirementNotMet))
		assert.Contains(t, err.Error(), "Нужно больше привязанности")
		assert.NotContains(t, err.Error(), "Нужен уровень 99")
	})

	t.Run("missing message falls back to generic", func(t *testing.T) {
		choice := &models.Choice{
			Requirements: []models.Requirement{
				{Type: models.RequirementLevel, Comparison: models.ComparisonGTE, Value: 99},
			},
		}
		err := checkChoiceRequirements(choice, stats, log)
		assert.True(t, errors.Is(err, ErrRequirementNotMet))
		assert.Contains(t, err.Error(), defaultRequirementMessage)
	})
}
