package service

import (
	"fmt"

	"story-server/internal/models"

	"go.uber.org/zap"
)

const defaultRequirementMessage = "Это действие пока недоступно"

// EvaluateRequirement проверяет одно требование против статов пользователя.
// Чистая функция: никаких побочных эффектов, кроме предупреждения в лог
// про неизвестный оператор сравнения.
func EvaluateRequirement(req models.Requirement, stats *models.UserStats, log *zap.Logger) bool {
	switch req.Type {
	case models.RequirementAffection:
		return compareInt(stats.Affection, req.Comparison, req.Value, log)
	case models.RequirementLevel:
		return compareInt(stats.Level, req.Comparison, req.Value, log)
	case models.RequirementPremium:
		// Для premium сравнение всегда точное совпадение bool.
		return stats.IsPremium == (req.Value != 0)
	default:
		// Неизвестный тип требования - ошибка авторинга контента.
		// Пропускаем, чтобы опечатка не заблокировала опубликованную
		// историю, но шумим в лог.
		log.Warn("Unknown requirement type, treating as satisfied",
			zap.String("type", string(req.Type)))
		return true
	}
}

func compareInt(actual int, op models.ComparisonOp, value int, log *zap.Logger) bool {
	switch op {
	case models.ComparisonGTE:
		return actual >= value
	case models.ComparisonLTE:
		return actual <= value
	case models.ComparisonEQ:
		return actual == value
	default:
		// Та же permissive-политика, что и для неизвестного типа.
		log.Warn("Unknown requirement comparison, treating as satisfied",
			zap.String("comparison", string(op)))
		return true
	}
}

// checkChoiceRequirements проверяет все требования выбора по порядку.
// Первое невыполненное требование останавливает проверку, его сообщение
// возвращается внутри ErrRequirementNotMet. Пустой список всегда проходит.
func checkChoiceRequirements(choice *models.Choice, stats *models.UserStats, log *zap.Logger) error {
	for _, req := range choice.Requirements {
		if EvaluateRequirement(req, stats, log) {
			continue
		}
		msg := req.ErrorMessage
		if msg == "" {
			msg = defaultRequirementMessage
		}
		return fmt.Errorf("%w: %s", ErrRequirementNotMet, msg)
	}
	return nil
}
