package domain

import (
	"time"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/gridsearch"
)

type ExperimentKind string

const (
	ExperimentKindGridSearch     ExperimentKind = "grid_search"
	ExperimentKindSelectionStudy ExperimentKind = "selection_study"
)

type ExperimentStatus string

const (
	ExperimentStatusPending  ExperimentStatus = "pending"
	ExperimentStatusRunning  ExperimentStatus = "running"
	ExperimentStatusFinished ExperimentStatus = "finished"
	ExperimentStatusFailed   ExperimentStatus = "failed"
)

type Experiment struct {
	ID                  int64                    `json:"id"`
	JobID               string                   `json:"jobID"`
	Name                string                   `json:"name"`
	Kind                ExperimentKind           `json:"kind"`
	RelationshipSheetID int64                    `json:"relationshipSheetID"`
	Settings            gridsearch.Settings      `json:"settings"`
	Combinations        []gridsearch.Combination `json:"combinations"`
	Status              ExperimentStatus         `json:"status"`
	Error               string                   `json:"error"`
	CreatedBy           int64                    `json:"createdBy"`
	CreatedAt           time.Time                `json:"createdAt"`
	StartedAt           *time.Time               `json:"startedAt"`
	FinishedAt          *time.Time               `json:"finishedAt"`
	Version             int32                    `json:"-"`
}

type ExperimentColumn struct {
	Name string      `json:"name"`
	Runs [][]float64 `json:"runs"`
}

// ExperimentResult 网格搜索的结果表，每个组合一列
type ExperimentResult struct {
	ExperimentID int64                `json:"experimentID"`
	Generations  int                  `json:"generations"`
	Columns      []ExperimentColumn   `json:"columns"`
	Summaries    []gridsearch.Summary `json:"summaries,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

func NewExperimentResult(experimentID int64, results *gridsearch.Results) *ExperimentResult {
	er := &ExperimentResult{
		ExperimentID: experimentID,
		Generations:  results.Generations,
		Columns:      make([]ExperimentColumn, len(results.Columns)),
	}
	for i, c := range results.Columns {
		er.Columns[i] = ExperimentColumn{Name: c.Name, Runs: c.Runs}
	}
	return er
}

// Results 转换回 gridsearch 的结果表，用于汇总和导出
func (er *ExperimentResult) Results() *gridsearch.Results {
	results := &gridsearch.Results{
		Generations: er.Generations,
		Columns:     make([]gridsearch.Column, len(er.Columns)),
	}
	for i, c := range er.Columns {
		results.Columns[i] = gridsearch.Column{Name: c.Name, Runs: c.Runs}
	}
	return results
}

// ExperimentJob 投递到实验队列中的消息
type ExperimentJob struct {
	JobID        string `json:"jobID"`
	ExperimentID int64  `json:"experimentID"`
}

// ExperimentProgress 保存在 redis 中的实验进度
type ExperimentProgress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ExperimentProgressKey redis 中保存实验进度的键
func ExperimentProgressKey(jobID string) string {
	return "experiment_progress_" + jobID
}
