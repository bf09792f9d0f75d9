// Package async provides a generic promise for handing a single result from
// one goroutine to another.
//
// A Promise is settled once with Complete or Fail. Later attempts to settle
// it are ignored and report false. Any number of goroutines may wait on it.
//
// # Usage
//
//	p := async.NewPromise[string]()
//
//	go func() {
//		p.Complete("pong")
//	}()
//
//	v, err := p.Await(ctx)
//
// Waiting with a select:
//
//	select {
//	case <-p.Done():
//		v, err := p.Await(ctx)
//	case <-time.After(50 * time.Millisecond):
//		log.Println("no answer in time")
//	}
//
// # Concurrency Safety
//
// All methods are safe for concurrent use. Settlement uses sync.Once, so the
// value observed by every waiter is the one from the first settling call.
package async
