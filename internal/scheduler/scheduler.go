package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"
)

type Scheduler struct {
	parameters *Parameters
	sheet      *domain.RelationshipSheet
	rel        *charles.RelationshipMatrix
	logger     *slog.Logger
}

func New(parameters *Parameters, sheet *domain.RelationshipSheet) (*Scheduler, error) {
	rel, err := utils.ValidateRelationshipSheet(sheet)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		parameters: parameters,
		sheet:      sheet,
		rel:        rel,
		logger:     slog.Default(),
	}, nil
}

func (s *Scheduler) evolveParams() (charles.EvolveParams, error) {
	params := charles.EvolveParams{
		Generations:   s.parameters.Generations,
		CrossoverProb: s.parameters.CrossoverProb,
		MutationProb:  s.parameters.MutationProb,
		Elitism:       s.parameters.Elitism,
		EliteSize:     s.parameters.EliteSize,
	}
	if err := params.SetOperators(s.parameters.Selection, s.parameters.Crossover, s.parameters.Mutation); err != nil {
		return params, err
	}

	if s.parameters.Selection == charles.TournamentSelectionName && s.parameters.TournamentSize > 0 {
		params.Select = charles.Tournament(s.parameters.TournamentSize)
	}

	return params, nil
}

// Schedule 运行一次遗传算法，返回最后一代中适应度最高的座位安排
func (s *Scheduler) Schedule() (*domain.SeatingPlan, error) {
	params, err := s.evolveParams()
	if err != nil {
		return nil, err
	}

	cfg := charles.Config{
		PopSize:  s.parameters.PopSize,
		NrGuests: s.rel.Size(),
		NrTables: s.parameters.NrTables,
	}
	pop, err := charles.NewPopulation(s.rel, cfg, charles.NewRand(s.parameters.Seed), charles.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	history, err := pop.Evolve(params)
	if err != nil {
		return nil, err
	}

	best := pop.BestIndividual()
	plan := &domain.SeatingPlan{
		RelationshipSheetID: s.sheet.ID,
		Parameters: domain.SeatingPlanParameters{
			Selection:     s.parameters.Selection,
			Crossover:     s.parameters.Crossover,
			Mutation:      s.parameters.Mutation,
			Elitism:       s.parameters.Elitism,
			EliteSize:     s.parameters.EliteSize,
			PopSize:       s.parameters.PopSize,
			Generations:   s.parameters.Generations,
			CrossoverProb: s.parameters.CrossoverProb,
			MutationProb:  s.parameters.MutationProb,
			NrTables:      s.parameters.NrTables,
			Seed:          s.parameters.Seed,
		},
		Tables:         make([]domain.SeatingPlanTable, best.NumTables()),
		Fitness:        best.Fitness(),
		FitnessHistory: history,
	}

	for i := range plan.Tables {
		guests := best.Table(i)
		names := make([]string, len(guests))
		for j, guest := range guests {
			names[j] = s.guestName(guest)
		}
		plan.Tables[i] = domain.SeatingPlanTable{
			Guests:     guests,
			GuestNames: names,
			Fitness:    best.TableFitness(i),
		}
	}

	// 结果必须是一个合法的划分，并且适应度与关系矩阵一致
	if err := utils.ValidateSeatingPlan(plan, s.sheet.Matrix); err != nil {
		return nil, fmt.Errorf("座位安排校验失败: %w", err)
	}

	return plan, nil
}

func (s *Scheduler) guestName(guest int) string {
	if guest >= 1 && guest <= len(s.sheet.Guests) && s.sheet.Guests[guest-1] != "" {
		return s.sheet.Guests[guest-1]
	}
	return fmt.Sprintf("%d", guest)
}
