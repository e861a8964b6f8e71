package tasks

import (
	"context"
	"fmt"
	"sync"
)

// Result is the outcome of one task passed to SettleAll.
type Result struct {
	Name string
	Err  error
}

// Task is one unit of work for SettleAll.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// SettleAll runs every task concurrently and waits for all of them.
//
// It never short-circuits: the result slice has one entry per task, in input order,
// and a failing or panicking task does not affect the others.
func SettleAll(ctx context.Context, tasks ...Task) []Result {
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		results[i].Name = task.Name
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					results[i].Err = fmt.Errorf("task %s panicked: %v", task.Name, p)
				}
			}()
			results[i].Err = task.Run(ctx)
		}(i, task)
	}
	wg.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
