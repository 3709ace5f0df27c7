package calculator

import (
	"sort"
	"time"
)

// 基于切片任务分配的并行执行器
// 每个任务负责 [start, end) 区间内的叶素，结果按下标写回，求和顺序与调度无关
type executor struct {
	workers int
}

type task struct {
	start int
	end   int
}

type taskResult struct {
	index int // 第一个出错的下标，-1 表示无错误
	err   error
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{workers: workers}
}

// 任务划分：每个 worker 的份额再对半拆分，余数单独成任务
func (e *executor) split(total int) []task {
	taskLen, remainder := total/e.workers, total%e.workers
	tasks := make([]task, 0, e.workers*2+remainder)
	start := 0
	if taskLen == 1 {
		for start < total-remainder {
			tasks = append(tasks, task{start: start, end: start + 1})
			start++
		}
	} else if taskLen > 1 {
		half1, half2 := taskLen/2, taskLen/2
		if taskLen%2 == 1 {
			half2++
		}
		for start < total-remainder {
			tasks = append(tasks, task{start: start, end: start + half1})
			start += half1
			tasks = append(tasks, task{start: start, end: start + half2})
			start += half2
		}
	}
	for i := 0; i < remainder; i++ {
		tasks = append(tasks, task{start: start, end: start + 1})
		start++
	}
	return tasks
}

// dispatchTask 对 [0, total) 并行执行 f，返回下标最小的错误
func (e *executor) dispatchTask(total int, f func(i int) error) (time.Duration, error) {
	start := time.Now()
	if total == 0 {
		return 0, nil
	}
	if e.workers == 1 {
		for i := 0; i < total; i++ {
			if err := f(i); err != nil {
				return time.Since(start), err
			}
		}
		return time.Since(start), nil
	}

	tasks := e.split(total)
	dispatchChan := make(chan task, len(tasks))
	doneSoFar := make(chan taskResult, len(tasks))
	for _, t := range tasks {
		dispatchChan <- t
	}
	close(dispatchChan)

	workers := e.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	for w := 0; w < workers; w++ {
		go func() {
			for t := range dispatchChan {
				res := taskResult{index: -1}
				for i := t.start; i < t.end; i++ {
					if err := f(i); err != nil {
						res = taskResult{index: i, err: err}
						break
					}
				}
				doneSoFar <- res
			}
		}()
	}

	failed := make([]taskResult, 0)
	for range tasks {
		if res := <-doneSoFar; res.err != nil {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return time.Since(start), nil
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].index < failed[j].index })
	return time.Since(start), failed[0].err
}
