package job

import (
	"fmt"
	"image"
)

// Annotate asks for one trial's annotated frame at one window offset
type Annotate struct {
	Trial  int
	Offset int
}

// Annotated is the worker's answer, Trial keeps the grid order
type Annotated struct {
	Trial int
	Frame image.Image
}

// Step builds one job per trial for offset, in trial order.
func Step(trials, offset int) []Annotate {
	jobs := make([]Annotate, trials)
	for i := range jobs {
		jobs[i] = Annotate{Trial: i, Offset: offset}
	}
	return jobs
}

func (j Annotate) Print() string {
	return fmt.Sprintf("Job: Trial: %d, Offset: %d", j.Trial, j.Offset)
}
