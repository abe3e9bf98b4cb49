// Package fleet coordinates firmware updates across multiple docks. Each
// dock's engine runs on an independent worker so one dock's multi minute
// transfer does not stall the others.
package fleet

import (
	"errors"
	"sync"

	"github.com/samber/lo"

	"github.com/dockfw/dockfw/pkg/dock"
)

// UpdateStatus represents the status of a dock firmware update.
type UpdateStatus struct {
	Progress float64
	Error    error
}

// Update will stage the provided firmware for the named component on all
// docks with the specified level of parallelism. If a callback is provided it
// will be called with the current status of each update. It returns a list of
// statuses in the same order as the provided dock list.
func Update(docks []*dock.Dock, target string, firmware []byte, jobs int, callback func(string, UpdateStatus)) ([]UpdateStatus, error) {
	// check docks
	if len(docks) == 0 {
		return nil, errors.New("zero docks")
	}

	// ensure parallelism is at least 1
	if jobs < 1 {
		jobs = 1
	}

	// prepare statuses
	statuses := make([]UpdateStatus, len(docks))

	// prepare queue
	queue := make(chan int, len(docks))
	for i := range docks {
		queue <- i
	}
	close(queue)

	// create work group
	var wg sync.WaitGroup
	wg.Add(jobs)

	// spawn workers
	for j := 0; j < jobs; j++ {
		go func() {
			defer wg.Done()

			for i := range queue {
				// perform update
				d := docks[i]
				err := d.Update(target, firmware, func(sent int) {
					// set progress
					statuses[i].Progress = float64(sent) / float64(len(firmware))

					// call callback if provided
					if callback != nil {
						callback(d.Serial(), statuses[i])
					}
				})
				if err != nil {
					// set error
					statuses[i].Error = err

					// call callback if provided
					if callback != nil {
						callback(d.Serial(), statuses[i])
					}
				}
			}
		}()
	}

	// wait for all to finish
	wg.Wait()

	// get first error
	failed, ok := lo.Find(statuses, func(s UpdateStatus) bool {
		return s.Error != nil
	})
	if ok {
		return statuses, failed.Error
	}

	return statuses, nil
}
