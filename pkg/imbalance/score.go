/*
 * MIT License
 *
 * Copyright (c) 2023 EASL and the vHive community
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package imbalance turns unified (hour, nodegroup) records into ranked,
// classified imbalance signals.
package imbalance

import (
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/metrics"
)

// ScoreOptions parameterizes the scoring stage. The zero value is not
// usable; start from DefaultScoreOptions.
type ScoreOptions struct {
	Epsilon float64

	Method metrics.NormalizationMethod
	Window int

	PendingWeight  float64
	WaitTimeWeight float64

	DcrWeight float64
	GapWeight float64
	QpsWeight float64
}

func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		Epsilon:        common.CapacityEpsilon,
		Method:         metrics.MinMax,
		PendingWeight:  common.PendingWeight,
		WaitTimeWeight: common.WaitTimeWeight,
		DcrWeight:      common.DcrWeight,
		GapWeight:      common.GapWeight,
		QpsWeight:      common.QpsWeight,
	}
}

// DemandCapacityRatio is pending demand over available capacity. Epsilon
// only guards exact zero; the ratio stays effectively unbounded so that
// near-zero capacity under nonzero demand registers as extreme pressure.
func DemandCapacityRatio(pending, availableCapacity, epsilon float64) float64 {
	return pending / (availableCapacity + epsilon)
}

// QueuePressure combines normalized queue depth and wait time. Bounded to
// [0, 1] by construction since the weights sum to 1.
func QueuePressure(pending, waitTime []float64, opts ScoreOptions) ([]float64, error) {
	normPending, err := metrics.Normalize(pending, opts.Method, opts.Window)
	if err != nil {
		return nil, err
	}
	normWait, err := metrics.Normalize(waitTime, opts.Method, opts.Window)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(pending))
	for i := range result {
		result[i] = opts.PendingWeight*normPending[i] + opts.WaitTimeWeight*normWait[i]
	}

	return result, nil
}

// severityRule pairs a predicate on (CIS, DCR) with a severity label. First
// match wins. The predicates OR a bounded score with an unbounded ratio on
// purpose: either signal alone can force an escalation, so the most
// pessimistic signal wins. A missing CIS (NaN) matches no CIS predicate and
// leaves the decision to DCR.
type severityRule struct {
	match    func(cis, dcr float64) bool
	severity string
}

var severityRules = []severityRule{
	{func(cis, dcr float64) bool { return cis > 0.7 || dcr > 2.0 }, common.SeverityCritical},
	{func(cis, dcr float64) bool { return cis > 0.5 || dcr > 1.0 }, common.SeverityWarning},
	{func(cis, dcr float64) bool { return cis > 0.3 }, common.SeverityModerate},
}

// ClassifySeverity maps a (CIS, DCR) pair to one of the four severity
// labels.
func ClassifySeverity(cis, dcr float64) string {
	for _, rule := range severityRules {
		if rule.match(cis, dcr) {
			return rule.severity
		}
	}
	return common.SeverityHealthy
}

// Score extends every unified record with the demand-capacity ratio, queue
// pressure score, composite imbalance score and severity label. The input
// slice is not modified; output order matches input order.
//
// A bucket without GPU telemetry has a missing efficiency gap; the composite
// score stays missing for it rather than being defaulted, and its severity
// is decided by the raw ratio alone.
func Score(records []common.UnifiedRecord, opts ScoreOptions) ([]common.ImbalanceRecord, error) {
	pending := make([]float64, len(records))
	waitTime := make([]float64, len(records))
	available := make([]float64, len(records))
	dcr := make([]float64, len(records))
	gapPositive := make([]float64, len(records))

	for i, r := range records {
		pending[i] = r.PendingWorkloads
		waitTime[i] = r.AdmissionWaitTimeSeconds

		available[i] = common.MaxOf(0, r.AllocatableGpuCount-r.ResourceUsage)
		dcr[i] = DemandCapacityRatio(r.PendingWorkloads, available[i], opts.Epsilon)

		// Only positive gaps feed the composite score; a negative gap is
		// a data anomaly and must not reduce it. Missing stays missing.
		if common.IsMissing(r.EfficiencyGap) {
			gapPositive[i] = common.Missing()
		} else {
			gapPositive[i] = common.MaxOf(0, r.EfficiencyGap)
		}
	}

	qps, err := QueuePressure(pending, waitTime, opts)
	if err != nil {
		return nil, err
	}

	normDcr, err := metrics.Normalize(dcr, opts.Method, opts.Window)
	if err != nil {
		return nil, err
	}
	normGap, err := metrics.Normalize(gapPositive, opts.Method, opts.Window)
	if err != nil {
		return nil, err
	}

	result := make([]common.ImbalanceRecord, 0, len(records))
	for i, r := range records {
		cis := opts.DcrWeight*normDcr[i] + opts.GapWeight*normGap[i] + opts.QpsWeight*qps[i]

		result = append(result, common.ImbalanceRecord{
			UnifiedRecord:           r,
			AvailableCapacity:       available[i],
			DemandCapacityRatio:     dcr[i],
			QueuePressureScore:      qps[i],
			CompositeImbalanceScore: cis,
			ImbalanceSeverity:       ClassifySeverity(cis, dcr[i]),
		})
	}

	return result, nil
}
