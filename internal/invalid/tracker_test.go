package invalid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socialmapper/socialmapper/internal/types"
)

func TestTrackerAccumulatesByClass(t *testing.T) {
	tr := New()
	tr.RecordPoint(types.InvalidRecord{Reason: "bad coords", Stage: types.StagePOIExtraction})
	tr.RecordCluster(types.InvalidRecord{Reason: "empty network", Stage: types.StageIsochrone})
	tr.RecordError(types.InvalidRecord{Reason: "census timeout", Stage: types.StageCensus})

	summary := tr.Summary()
	assert.Len(t, summary.InvalidPoints, 1)
	assert.Len(t, summary.InvalidClusters, 1)
	assert.Len(t, summary.ProcessingErrors, 1)
	assert.Equal(t, 3, summary.Total())
}

func TestTrackerConcurrentWrites(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordPoint(types.InvalidRecord{Reason: "x"})
		}()
	}
	wg.Wait()
	assert.Len(t, tr.Summary().InvalidPoints, 100)
}
