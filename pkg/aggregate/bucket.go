package aggregate

import (
	"sort"
	"time"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// FloorToHour floors a timestamp to the start of its hour. Idempotent:
// flooring an already-floored timestamp yields the same value.
func FloorToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

func bucketOf(ts common.Timestamp, nodegroup string) common.BucketKey {
	return common.BucketKey{Hour: FloorToHour(ts.Time), Nodegroup: nodegroup}
}

// sortKeys orders bucket keys by (hour, nodegroup) ascending, which fixes the
// output ordering of every aggregation and join in this package.
func sortKeys(keys []common.BucketKey) {
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
}

func lessKey(a, b common.BucketKey) bool {
	if !a.Hour.Equal(b.Hour) {
		return a.Hour.Before(b.Hour)
	}
	return a.Nodegroup < b.Nodegroup
}
