package rmrcs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseTasks reads tasks.txt: whitespace-separated integer triples
// "arrival wcet period", optionally prefixed by a leading task count.
// If the first token alone parses and equals the number of subsequent
// triples, the file is treated as count-prefixed; otherwise every
// token is a bare triple.
func ParseTasks(r io.Reader) ([]Task, error) {
	nums, err := scanInts(r)
	if err != nil {
		return nil, errors.Wrap(err, "rmrcs: parsing tasks file")
	}
	if len(nums) == 0 {
		return nil, errors.New("rmrcs: tasks file is empty")
	}

	body := nums
	if len(nums)%3 == 1 && nums[0] == (len(nums)-1)/3 {
		body = nums[1:]
	}

	if len(body)%3 != 0 {
		return nil, errors.Errorf("rmrcs: tasks file has %d integers, not a multiple of 3", len(body))
	}

	tasks := make([]Task, 0, len(body)/3)
	for i := 0; i*3 < len(body); i++ {
		arrival, wcet, period := body[i*3], body[i*3+1], body[i*3+2]
		if period <= 0 {
			return nil, errors.Errorf("rmrcs: task %d has non-positive period %d", i+1, period)
		}
		if arrival < 0 {
			return nil, errors.Errorf("rmrcs: task %d has negative arrival %d", i+1, arrival)
		}
		if wcet > period {
			return nil, errors.Errorf("rmrcs: task %d has wcet %d greater than period %d", i+1, wcet, period)
		}
		tasks = append(tasks, Task{ID: i + 1, Arrival: arrival, WCET: wcet, Period: period})
	}
	return tasks, nil
}

// ParseActual reads actual.txt: one real number per line, positional
// with the task list. It fills in Actual/HasActual on tasks in
// place; a short file (or a missing file, which callers should treat
// as "no actual times") simply leaves the remaining tasks defaulted
// to WCET.
func ParseActual(r io.Reader, tasks []Task) error {
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() && i < len(tasks) {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return errors.Wrapf(err, "rmrcs: parsing actual.txt line %d", i+1)
		}
		tasks[i].Actual = v
		tasks[i].HasActual = true
		i++
	}
	return errors.Wrap(scanner.Err(), "rmrcs: reading actual.txt")
}

func scanInts(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	var out []int
	for scanner.Scan() {
		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "parsing integer token %q", scanner.Text())
		}
		out = append(out, v)
	}
	return out, errors.Wrap(scanner.Err(), "scanning input")
}

// Format selects the numeric formatting of WriteSchedule's output:
// integer variants print plain integers, the actual-time variant
// prints one decimal place.
type Format int

const (
	FormatInt Format = iota
	FormatDecimal1
)

func (f Format) render(v float64) string {
	if f == FormatDecimal1 {
		return fmt.Sprintf("%.1f", v)
	}
	return strconv.Itoa(int(v))
}

// TaskTurnaround is one row of the optional turnaround-times block.
type TaskTurnaround struct {
	TaskID, JobID int
	Turnaround    float64
}

// TaskAverage is one task's average turnaround across its jobs.
type TaskAverage struct {
	TaskID  int
	Average float64
}

// WriteSchedule renders the schedule report to w: the hyperperiod
// header, one line per entry, and the analysis block.
func WriteSchedule[T Number](w io.Writer, result *Result[T], format Format, turnarounds []TaskTurnaround, averages []TaskAverage) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Schedule (Hyperperiod: %d):\n", result.Hyperperiod)
	fmt.Fprintf(bw, "TaskJob | Start-End | Context Switch\n")

	for _, e := range result.Schedule {
		if e.TaskID == 0 {
			fmt.Fprintf(bw, "Idle %s-%s\n", format.render(float64(e.Start)), format.render(float64(e.End)))
			continue
		}
		fmt.Fprintf(bw, "T%dj%d %s-%s", e.TaskID, e.JobID, format.render(float64(e.Start)), format.render(float64(e.End)))
		if e.ContextSwitch {
			fmt.Fprintf(bw, " | CS")
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintf(bw, "\nAnalysis:\n")
	fmt.Fprintf(bw, "Total Context Switches: %d\n", result.ContextSwitches)
	fmt.Fprintf(bw, "Total Idle Time: %s\n", format.render(float64(result.IdleTime)))

	if len(turnarounds) > 0 {
		fmt.Fprintf(bw, "Turnaround Times:\n")
		byTask := make(map[int][]TaskTurnaround)
		order := make([]int, 0)
		for _, t := range turnarounds {
			if _, seen := byTask[t.TaskID]; !seen {
				order = append(order, t.TaskID)
			}
			byTask[t.TaskID] = append(byTask[t.TaskID], t)
		}
		avgByTask := make(map[int]float64, len(averages))
		for _, a := range averages {
			avgByTask[a.TaskID] = a.Average
		}
		for _, taskID := range order {
			for _, t := range byTask[taskID] {
				fmt.Fprintf(bw, "  T%d Job %d: %s\n", t.TaskID, t.JobID, format.render(t.Turnaround))
			}
			if avg, ok := avgByTask[taskID]; ok {
				fmt.Fprintf(bw, "  Average for T%d: %.2f\n", taskID, avg)
			}
		}
	}

	return bw.Flush()
}
