package subharmonic

import (
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/model"
)

// Aggregation names how a day's assignments collapse into one sample.
type Aggregation string

const (
	AggregationCount        Aggregation = "count"
	AggregationHours        Aggregation = "hours"
	AggregationBinary       Aggregation = "binary"
	AggregationUniquePeople Aggregation = "unique_people"
)

// BuildSeries turns an assignment set into a daily time series of length
// days starting at start, resolving each assignment's calendar day through
// its block. Assignments whose block is unknown or outside the window are
// skipped.
func BuildSeries(assignments []model.Assignment, blocks []model.Block, start time.Time, days int, agg Aggregation) []float64 {
	blockByID := make(map[string]model.Block, len(blocks))
	for _, b := range blocks {
		blockByID[b.ID] = b
	}

	start = start.Truncate(24 * time.Hour)
	series := make([]float64, days)
	people := make([]sets.Set[string], days)

	for _, a := range assignments {
		block, ok := blockByID[a.BlockID]
		if !ok {
			continue
		}
		day := int(block.Date.Sub(start).Hours() / 24)
		if day < 0 || day >= days {
			continue
		}
		switch agg {
		case AggregationHours:
			series[day] += a.Hours
		case AggregationBinary:
			series[day] = 1
		case AggregationUniquePeople:
			if people[day] == nil {
				people[day] = sets.New[string]()
			}
			people[day].Insert(a.PersonID)
		default:
			series[day]++
		}
	}

	if agg == AggregationUniquePeople {
		for day, set := range people {
			series[day] = float64(set.Len())
		}
	}
	return series
}
