package rmrcs

// Turnarounds computes per-job turnaround time (completion - release)
// and per-task averages from a simulator's jobs and merged schedule.
func Turnarounds[T Number](jobs []Job[T], schedule []ScheduleEntry[T]) ([]TaskTurnaround, []TaskAverage) {
	type key struct{ taskID, jobID int }
	completion := make(map[key]float64)
	for _, e := range schedule {
		if e.TaskID == 0 {
			continue
		}
		k := key{e.TaskID, e.JobID}
		end := float64(e.End)
		if existing, ok := completion[k]; !ok || end > existing {
			completion[k] = end
		}
	}

	var turnarounds []TaskTurnaround
	sums := make(map[int]float64)
	counts := make(map[int]int)
	taskOrder := make([]int, 0)
	seenTask := make(map[int]bool)

	for _, j := range jobs {
		if !seenTask[j.TaskID] {
			seenTask[j.TaskID] = true
			taskOrder = append(taskOrder, j.TaskID)
		}
		end, ok := completion[key{j.TaskID, j.JobID}]
		if !ok {
			continue
		}
		t := end - float64(j.Release)
		turnarounds = append(turnarounds, TaskTurnaround{TaskID: j.TaskID, JobID: j.JobID, Turnaround: t})
		sums[j.TaskID] += t
		counts[j.TaskID]++
	}

	var averages []TaskAverage
	for _, taskID := range taskOrder {
		if counts[taskID] == 0 {
			continue
		}
		averages = append(averages, TaskAverage{TaskID: taskID, Average: sums[taskID] / float64(counts[taskID])})
	}

	return turnarounds, averages
}
