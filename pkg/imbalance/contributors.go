package imbalance

import (
	"sort"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/aggregate"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// GroupContributor ranks a nodegroup by its mean composite imbalance score.
type GroupContributor struct {
	Nodegroup          string  `csv:"nodegroup"`
	MeanImbalanceScore float64 `csv:"composite_imbalance_score"`
	TotalPending       float64 `csv:"pending_workloads"`
	MeanEfficiencyGap  float64 `csv:"efficiency_gap"`
}

// QueueContributor ranks a queue by pressure recomputed from raw demand
// records, since queue granularity is finer than the (hour, nodegroup) join
// key.
type QueueContributor struct {
	QueueName       string  `csv:"queue_name"`
	TotalPending    float64 `csv:"pending_workloads"`
	MeanWaitSeconds float64 `csv:"admission_wait_time_seconds"`
	TotalActive     float64 `csv:"admitted_active_workloads"`
	PressureScore   float64 `csv:"queue_pressure"`
}

// NamespaceContributor mirrors QueueContributor at namespace granularity.
type NamespaceContributor struct {
	Namespace       string  `csv:"namespace"`
	TotalPending    float64 `csv:"pending_workloads"`
	MeanWaitSeconds float64 `csv:"admission_wait_time_seconds"`
	TotalUsage      float64 `csv:"resource_usage"`
	PressureScore   float64 `csv:"namespace_pressure"`
}

// Contributors holds the three independently ranked top-N lists. Magnitudes
// are not comparable across dimensions: no cross-dimension normalization is
// applied.
type Contributors struct {
	ByNodegroup []GroupContributor
	ByQueue     []QueueContributor
	ByNamespace []NamespaceContributor
}

// TopContributors ranks the top n entities along each of the three
// dimensions, descending by the dimension's metric. The sorts are stable, so
// ties retain source ordering.
func TopContributors(scored []common.ImbalanceRecord, demand []common.DemandRecord, n int, opts ScoreOptions) (Contributors, error) {
	// Contributor vectors are per-entity, not per-hour; a trailing window
	// has no meaning over them.
	opts.Window = 0

	byQueue, err := rankQueues(demand, n, opts)
	if err != nil {
		return Contributors{}, err
	}

	byNamespace, err := rankNamespaces(demand, n, opts)
	if err != nil {
		return Contributors{}, err
	}

	return Contributors{
		ByNodegroup: rankNodegroups(scored, n),
		ByQueue:     byQueue,
		ByNamespace: byNamespace,
	}, nil
}

func rankNodegroups(scored []common.ImbalanceRecord, n int) []GroupContributor {
	type groupStats struct {
		cis     []float64
		pending float64
		gaps    []float64
	}

	byGroup := map[string]*groupStats{}
	var order []string
	for _, r := range scored {
		s, ok := byGroup[r.Nodegroup]
		if !ok {
			s = &groupStats{}
			byGroup[r.Nodegroup] = s
			order = append(order, r.Nodegroup)
		}
		s.pending += r.PendingWorkloads
		if !common.IsMissing(r.CompositeImbalanceScore) {
			s.cis = append(s.cis, r.CompositeImbalanceScore)
		}
		if !common.IsMissing(r.EfficiencyGap) {
			s.gaps = append(s.gaps, r.EfficiencyGap)
		}
	}

	contributors := make([]GroupContributor, 0, len(order))
	for _, group := range order {
		s := byGroup[group]
		contributors = append(contributors, GroupContributor{
			Nodegroup:          group,
			MeanImbalanceScore: meanOrMissing(s.cis),
			TotalPending:       s.pending,
			MeanEfficiencyGap:  meanOrMissing(s.gaps),
		})
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		return descending(contributors[i].MeanImbalanceScore, contributors[j].MeanImbalanceScore)
	})

	return truncate(contributors, n)
}

func rankQueues(demand []common.DemandRecord, n int, opts ScoreOptions) ([]QueueContributor, error) {
	type queueStats struct {
		pending float64
		waits   []float64
		active  float64
	}

	byQueue := map[string]*queueStats{}
	var order []string
	for _, r := range demand {
		s, ok := byQueue[r.QueueName]
		if !ok {
			s = &queueStats{}
			byQueue[r.QueueName] = s
			order = append(order, r.QueueName)
		}
		s.pending += r.PendingWorkloads
		s.waits = append(s.waits, r.AdmissionWaitTimeSeconds)
		s.active += r.AdmittedActiveWorkloads
	}

	pending := make([]float64, len(order))
	waitMeans := make([]float64, len(order))
	for i, queue := range order {
		pending[i] = byQueue[queue].pending
		waitMeans[i] = aggregate.Reduce(byQueue[queue].waits, aggregate.ReduceMean)
	}

	pressure, err := QueuePressure(pending, waitMeans, opts)
	if err != nil {
		return nil, err
	}

	contributors := make([]QueueContributor, 0, len(order))
	for i, queue := range order {
		contributors = append(contributors, QueueContributor{
			QueueName:       queue,
			TotalPending:    pending[i],
			MeanWaitSeconds: waitMeans[i],
			TotalActive:     byQueue[queue].active,
			PressureScore:   pressure[i],
		})
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		return descending(contributors[i].PressureScore, contributors[j].PressureScore)
	})

	return truncate(contributors, n), nil
}

func rankNamespaces(demand []common.DemandRecord, n int, opts ScoreOptions) ([]NamespaceContributor, error) {
	type namespaceStats struct {
		pending float64
		waits   []float64
		usage   float64
	}

	byNamespace := map[string]*namespaceStats{}
	var order []string
	for _, r := range demand {
		s, ok := byNamespace[r.Namespace]
		if !ok {
			s = &namespaceStats{}
			byNamespace[r.Namespace] = s
			order = append(order, r.Namespace)
		}
		s.pending += r.PendingWorkloads
		s.waits = append(s.waits, r.AdmissionWaitTimeSeconds)
		s.usage += r.ResourceUsage
	}

	pending := make([]float64, len(order))
	waitMeans := make([]float64, len(order))
	for i, namespace := range order {
		pending[i] = byNamespace[namespace].pending
		waitMeans[i] = aggregate.Reduce(byNamespace[namespace].waits, aggregate.ReduceMean)
	}

	pressure, err := QueuePressure(pending, waitMeans, opts)
	if err != nil {
		return nil, err
	}

	contributors := make([]NamespaceContributor, 0, len(order))
	for i, namespace := range order {
		contributors = append(contributors, NamespaceContributor{
			Namespace:       namespace,
			TotalPending:    pending[i],
			MeanWaitSeconds: waitMeans[i],
			TotalUsage:      byNamespace[namespace].usage,
			PressureScore:   pressure[i],
		})
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		return descending(contributors[i].PressureScore, contributors[j].PressureScore)
	})

	return truncate(contributors, n), nil
}

// descending orders larger values first and sinks missing values to the end.
func descending(a, b float64) bool {
	if common.IsMissing(a) {
		return false
	}
	if common.IsMissing(b) {
		return true
	}
	return a > b
}

func meanOrMissing(values []float64) float64 {
	if len(values) == 0 {
		return common.Missing()
	}
	return aggregate.Reduce(values, aggregate.ReduceMean)
}

func truncate[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
