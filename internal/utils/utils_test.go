package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSortedKeys(t *testing.T) {
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	mar := jan.AddDate(0, 2, 0)
	m := map[time.Time]float64{feb: 2, mar: 3, jan: 1}

	assert.Equal(t, []time.Time{jan, feb, mar}, GetSortedKeys(m, true))
	assert.Equal(t, []time.Time{mar, feb, jan}, GetSortedKeys(m, false))
	assert.Empty(t, GetSortedKeys(map[time.Time]int{}, true))
}

func TestExecuteWithGDALLock(t *testing.T) {
	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ExecuteWithGDALLock(func() {
				running++
				if running > maxSeen {
					maxSeen = running
				}
				time.Sleep(time.Millisecond)
				running--
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
