package orchestrator

import (
	"sort"

	"github.com/swellproject/swell/internal/domain"
)

// GroupTasksIntoWaves partitions tasks into ordered layers of mutually
// independent tasks. A task lands in the first wave whose index is strictly
// greater than the wave index of every dependency. An iteration that makes
// no progress while tasks remain means the graph has a cycle, which is
// fatal.
//
// Within a wave, tasks are ordered by descending priority and then by
// original position.
func GroupTasksIntoWaves(tasks []*domain.Task) ([][]*domain.Task, error) {
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}

	assigned := make(map[string]bool, len(tasks))
	var waves [][]*domain.Task

	for len(assigned) < len(tasks) {
		var wave []*domain.Task
		for _, t := range tasks {
			if assigned[t.ID] {
				continue
			}
			ready := true
			for _, dep := range t.DependsOn {
				if !assigned[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, t)
			}
		}

		if len(wave) == 0 {
			var remaining []string
			for _, t := range tasks {
				if !assigned[t.ID] {
					remaining = append(remaining, t.ID)
				}
			}
			return nil, &domain.CycleError{Remaining: remaining}
		}

		sort.SliceStable(wave, func(i, j int) bool {
			if wave[i].Priority != wave[j].Priority {
				return wave[i].Priority > wave[j].Priority
			}
			return index[wave[i].ID] < index[wave[j].ID]
		})

		for _, t := range wave {
			assigned[t.ID] = true
		}
		waves = append(waves, wave)
	}

	return waves, nil
}
