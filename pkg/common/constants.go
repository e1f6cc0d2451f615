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

package common

// Severity labels emitted by the imbalance classifier. The strings are part
// of the reporting contract and must not be renamed.
const (
	SeverityCritical = "Critical"
	SeverityWarning  = "Warning"
	SeverityModerate = "Moderate"
	SeverityHealthy  = "Healthy"
)

// Efficiency class labels emitted by the efficiency calculator. Also part of
// the reporting contract.
const (
	ClassEfficient    = "Efficient"
	ClassBottlenecked = "Bottlenecked"
	ClassModerate     = "Moderate"
	ClassInefficient  = "Inefficient"
	ClassIdle         = "Idle"
)

const (
	// CapacityEpsilon keeps the demand-capacity ratio finite when available
	// capacity hits exact zero. Near-zero capacity under nonzero demand must
	// still register as extreme pressure, so the ratio stays unbounded.
	CapacityEpsilon = 1e-6

	// Weights of the queue pressure score components.
	PendingWeight  = 0.6
	WaitTimeWeight = 0.4

	// Weights of the composite imbalance score components.
	DcrWeight = 0.5
	GapWeight = 0.3
	QpsWeight = 0.2
)

const (
	// MaxGpuTempCelsius is the upper bound accepted by ingest validation.
	MaxGpuTempCelsius = 120

	// AllocatableRatio is the fraction of raw nodepool capacity the
	// scheduler can actually place onto, after system reservations.
	AllocatableRatio = 0.95
)
