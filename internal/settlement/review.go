package settlement

import (
	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// reviewEdges задаёт допустимые переходы статуса расчётной записи.
var reviewEdges = map[model.SettlementStatus][]model.SettlementStatus{
	model.SettlementStatusPending:  {model.SettlementStatusReviewed, model.SettlementStatusDisputed},
	model.SettlementStatusReviewed: {model.SettlementStatusSettled, model.SettlementStatusDisputed},
	model.SettlementStatusDisputed: {model.SettlementStatusReviewed},
}

// CheckReviewTransition проверяет переход статуса расчётной записи.
// Записи создаёт только агрегатор; после создания меняются лишь статус и
// примечания, и только администратором.
func CheckReviewTransition(current, target model.SettlementStatus, role model.ActorRole) error {
	if role != model.RoleAdmin {
		return failure.Validation("role %s cannot review settlements", role)
	}

	for _, allowed := range reviewEdges[current] {
		if allowed == target {
			return nil
		}
	}

	return failure.BusinessRule("settlement status cannot change from %s to %s", current, target)
}
