package domain

import "time"

type SeatingPlanParameters struct {
	Selection     string  `json:"selection"`
	Crossover     string  `json:"crossover"`
	Mutation      string  `json:"mutation"`
	Elitism       bool    `json:"elitism"`
	EliteSize     int     `json:"eliteSize"`
	PopSize       int     `json:"popSize"`
	Generations   int     `json:"generations"`
	CrossoverProb float64 `json:"crossoverProb"`
	MutationProb  float64 `json:"mutationProb"`
	NrTables      int     `json:"nrTables"`
	Seed          int64   `json:"seed"`
}

type SeatingPlanTable struct {
	Guests     []int    `json:"guests"` // 宾客编号从 1 开始
	GuestNames []string `json:"guestNames"`
	Fitness    float64  `json:"fitness"`
}

type SeatingPlan struct {
	ID                  int64                 `json:"id"`
	RelationshipSheetID int64                 `json:"relationshipSheetID"`
	Parameters          SeatingPlanParameters `json:"parameters"`
	Tables              []SeatingPlanTable    `json:"tables"`
	Fitness             float64               `json:"fitness"`
	FitnessHistory      []float64             `json:"fitnessHistory"`
	CreatedBy           int64                 `json:"createdBy"`
	CreatedAt           time.Time             `json:"createdAt"`
	Version             int32                 `json:"-"`
}
