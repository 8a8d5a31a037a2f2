package soql

import (
	"fmt"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Plan operation names in their fixed logical order.
const (
	opFilter = "FILTER"
	opSort   = "SORT"
	opLimit  = "LIMIT"
	opSelect = "SELECT"
)

// buildExecutionPlan orders the logical operations implied by a query into a
// numbered step list. Steps for absent clauses are omitted; SELECT is always
// last.
func buildExecutionPlan(comp models.QueryComponents, perf models.Performance) models.ExecutionPlan {
	var steps []models.PlanStep

	if comp.HasWhere {
		cost := models.CostHigh
		switch {
		case perf.Selectivity < 0.1:
			cost = models.CostLow
		case perf.Selectivity < 0.5:
			cost = models.CostMedium
		}
		steps = append(steps, models.PlanStep{
			Step:          len(steps) + 1,
			Operation:     opFilter,
			Description:   "Apply WHERE clause filters",
			EstimatedRows: perf.EstimatedRows.AfterFilter,
			Cost:          cost,
		})
	}

	if comp.HasOrderBy {
		steps = append(steps, models.PlanStep{
			Step:          len(steps) + 1,
			Operation:     opSort,
			Description:   "Sort results by ORDER BY fields",
			EstimatedRows: perf.EstimatedRows.AfterFilter,
			Cost:          perf.SortingCost,
		})
	}

	if comp.HasLimit && comp.LimitValue != nil {
		rows := perf.EstimatedRows.AfterFilter
		if *comp.LimitValue < rows {
			rows = *comp.LimitValue
		}
		steps = append(steps, models.PlanStep{
			Step:          len(steps) + 1,
			Operation:     opLimit,
			Description:   fmt.Sprintf("Limit results to %d rows", *comp.LimitValue),
			EstimatedRows: rows,
			Cost:          models.CostLow,
		})
	}

	steps = append(steps, models.PlanStep{
		Step:          len(steps) + 1,
		Operation:     opSelect,
		Description:   "Return selected fields",
		EstimatedRows: perf.EstimatedRows.Final,
		Cost:          models.CostLow,
	})

	return models.ExecutionPlan{
		Steps:         steps,
		EstimatedRows: perf.EstimatedRows.Final,
		TotalSteps:    len(steps),
	}
}
