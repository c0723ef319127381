// SPDX-License-Identifier: MPL-2.0

package forgescript

import "time"

// Stats are the debug counters of one module, or the sum over a registry.
//
// ReadTime, HashTime and Size describe the most recent load. LoadTime (time
// spent compiling in Run), ExecTime and ExecCount accumulate and are reset by
// a successful reload.
type Stats struct {
	ReadTime  time.Duration
	HashTime  time.Duration
	LoadTime  time.Duration
	ExecTime  time.Duration
	ExecCount uint64
	Size      int64
}

// AvgLoadTime is LoadTime per execution, zero before the first one.
func (s Stats) AvgLoadTime() time.Duration {
	if s.ExecCount == 0 {
		return 0
	}
	return s.LoadTime / time.Duration(s.ExecCount)
}

// AvgExecTime is ExecTime per execution, zero before the first one.
func (s Stats) AvgExecTime() time.Duration {
	if s.ExecCount == 0 {
		return 0
	}
	return s.ExecTime / time.Duration(s.ExecCount)
}

func (s *Stats) add(o Stats) {
	s.ReadTime += o.ReadTime
	s.HashTime += o.HashTime
	s.LoadTime += o.LoadTime
	s.ExecTime += o.ExecTime
	s.ExecCount += o.ExecCount
	s.Size += o.Size
}
