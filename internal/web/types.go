package web

import (
	"time"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/internal/storage"
)

// ListRunsResponse is the response for GET /api/runs/
type ListRunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunSummary is a summary of a run for listing
type RunSummary struct {
	ID         string    `json:"id"`
	Instance   string    `json:"instance"`
	Status     string    `json:"status"`
	Objective  *float64  `json:"objective,omitempty"`
	Nodes      int       `json:"nodes"`
	Vehicles   int       `json:"vehicles"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RunDetail is the response for GET /api/runs/:id
type RunDetail struct {
	RunSummary
	Error   string              `json:"error,omitempty"`
	Config  domain.SolverConfig `json:"config"`
	Stats   domain.SearchStats  `json:"stats"`
	Columns []ColumnInfo        `json:"columns"`
}

// ColumnInfo is one selected vehicle sequence of a run
type ColumnInfo struct {
	Release  int     `json:"release"`
	Sequence []int   `json:"sequence"`
	Cost     int     `json:"cost"`
	Weight   float64 `json:"weight"`
}

func convertSummary(r *storage.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Instance:   r.InstanceName,
		Status:     string(r.Status),
		Objective:  r.Objective,
		Nodes:      r.Stats.NodesProcessed,
		Vehicles:   len(r.Columns),
		CreatedAt:  r.CreatedAt,
		FinishedAt: r.FinishedAt,
	}
}

func convertRun(r *storage.Run) RunDetail {
	d := RunDetail{
		RunSummary: convertSummary(r),
		Error:      r.Error,
		Config:     r.Config,
		Stats:      r.Stats,
		Columns:    make([]ColumnInfo, 0, len(r.Columns)),
	}
	for _, c := range r.Columns {
		d.Columns = append(d.Columns, ColumnInfo{
			Release:  c.Release,
			Sequence: c.Sequence,
			Cost:     c.Cost,
			Weight:   c.Weight,
		})
	}
	return d
}
