// Package application holds identifier generation shared by the service and
// its stores.
package application

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateCertificateNumber produces a certificate number of the form
// SOC-<last six digits of the ms timestamp>-<four zero-padded random digits>.
// Uniqueness is probabilistic only; callers must enforce it through the
// store's unique constraint and retry on collision.
func GenerateCertificateNumber() string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("SOC-%s-%04d", ts, rand.Intn(10000))
}
