package io

import (
	"sync"
)

// Reads a point source and submits its points in batches. Implementations close the work channel once done and
// submit at most one error.
type Producer interface {
	Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup)
}

// Consumes batches until the work channel is closed
type Consumer interface {
	Consume(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup)
}
