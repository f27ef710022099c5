package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/scheduler"
)

// defaultParameters 请求中没有给出的参数取配置中的默认值
func (h *Handler) defaultParameters() scheduler.Parameters {
	return scheduler.Parameters{
		PopSize:        h.config.GA.PopSize,
		Generations:    h.config.GA.Generations,
		CrossoverProb:  h.config.GA.CrossoverProb,
		MutationProb:   h.config.GA.MutationProb,
		Elitism:        true,
		EliteSize:      h.config.GA.EliteSize,
		NrTables:       h.config.GA.NrTables,
		TournamentSize: h.config.GA.TournamentSize,
		Selection:      charles.TournamentSelectionName,
		Crossover:      charles.GBXCrossoverName,
		Mutation:       charles.SwapMutationName,
	}
}

// GenerateSeatingPlan 同步运行一次遗传算法，保存并返回得到的座位安排
func (h *Handler) GenerateSeatingPlan(w http.ResponseWriter, r *http.Request) {
	sheet := r.Context().Value(RelationshipSheetCtx).(*domain.RelationshipSheet)

	params := h.defaultParameters()
	if err := h.decodeAndValidate(r, &params); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if params.Generations > h.config.GridSearch.MaxGenerations {
		h.errorResponse(w, r, fmt.Sprintf("迭代次数不能超过 %d", h.config.GridSearch.MaxGenerations))
		return
	}
	if params.PopSize > h.config.GridSearch.MaxPopSize {
		h.errorResponse(w, r, fmt.Sprintf("种群大小不能超过 %d", h.config.GridSearch.MaxPopSize))
		return
	}
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}

	s, err := scheduler.New(&params, sheet)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	plan, err := s.Schedule()
	if err != nil {
		switch {
		case errors.Is(err, charles.ErrInvalidConfiguration):
			h.errorResponse(w, r, fmt.Sprintf("%d 位宾客无法按当前参数排座位: %v", sheet.GuestCount(), err))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	createdBy, err := currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	plan.CreatedBy = createdBy

	if err := h.repository.CreateSeatingPlan(plan); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成座位安排成功", plan)
}

func (h *Handler) GetSeatingPlansOfSheet(w http.ResponseWriter, r *http.Request) {
	sheet := r.Context().Value(RelationshipSheetCtx).(*domain.RelationshipSheet)

	plans, err := h.repository.GetSeatingPlansBySheetID(sheet.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取座位安排列表成功", plans)
}

func (h *Handler) GetSeatingPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SeatingPlanCtx).(*domain.SeatingPlan)
	h.successResponse(w, r, "获取座位安排成功", plan)
}
