package letchain

import "fmt"

// Job is one instance of a task. It is a pure function of (task, id).
type Job struct {
	task *Task
	id   int
}

func newJob(task *Task, id int) Job {
	return Job{task: task, id: id}
}

func (j Job) Task() *Task {
	return j.task
}

func (j Job) ID() int {
	return j.id
}

func (j Job) Release() Ttick {
	return Ttick(j.id)*j.task.Period + j.task.Offset
}

func (j Job) Deadline() Ttick {
	return j.Release() + j.task.Deadline
}

func (j Job) String() string {
	return fmt.Sprintf("Job(%s, %d): r = %v, d = %v", j.task.Name, j.id, j.Release(), j.Deadline())
}

// JobsUntil returns the first ceil(until/period) jobs of the task.
func (t *Task) JobsUntil(until Ttick) []Job {
	if until <= 0 {
		return []Job{}
	}
	return t.JobsFrom(0, int(ceilDiv(until, t.Period)))
}

// JobsFrom returns count consecutive jobs starting at instance first.
func (t *Task) JobsFrom(first, count int) []Job {
	jobs := make([]Job, 0, count)
	for i := first; i < first+count; i++ {
		jobs = append(jobs, newJob(t, i))
	}
	return jobs
}

// firstJobAtOrAfter returns the index of the first job released at or after at.
func (t *Task) firstJobAtOrAfter(at Ttick) int {
	idx := ceilDiv(at-t.Offset, t.Period)
	if idx < 0 {
		return 0
	}
	return int(idx)
}
