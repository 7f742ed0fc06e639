package aggregation

import "btc-sentiment-lab/internal/domain"

// frameColumn selects one scalable column of a JoinedRow.
type frameColumn struct {
	get func(*domain.JoinedRow) float64
	set func(*domain.JoinedRow, float64)
}

var normalizedColumns = []frameColumn{
	{func(r *domain.JoinedRow) float64 { return r.Open }, func(r *domain.JoinedRow, v float64) { r.OpenNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.High }, func(r *domain.JoinedRow, v float64) { r.HighNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.Low }, func(r *domain.JoinedRow, v float64) { r.LowNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.Close }, func(r *domain.JoinedRow, v float64) { r.CloseNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.Volume }, func(r *domain.JoinedRow, v float64) { r.VolumeNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.AvgVaderCompound }, func(r *domain.JoinedRow, v float64) { r.AvgVaderCompoundNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.AvgPolarity }, func(r *domain.JoinedRow, v float64) { r.AvgPolarityNorm = v }},
	{func(r *domain.JoinedRow) float64 { return r.AvgSubjectivity }, func(r *domain.JoinedRow, v float64) { r.AvgSubjectivityNorm = v }},
	{func(r *domain.JoinedRow) float64 { return float64(r.PostCount) }, func(r *domain.JoinedRow, v float64) { r.PostCountNorm = v }},
}

// normalizeFrame min-max scales every tracked column over this frame's
// rows only. Scaled values are relative to the account filter and time
// window that produced the frame and are not comparable across
// different frames. A constant column scales to all zeros.
func normalizeFrame(frame *domain.Frame) {
	if len(frame.Rows) == 0 {
		return
	}
	for _, col := range normalizedColumns {
		lo, hi := col.get(&frame.Rows[0]), col.get(&frame.Rows[0])
		for i := range frame.Rows {
			v := col.get(&frame.Rows[i])
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		for i := range frame.Rows {
			if span == 0 {
				col.set(&frame.Rows[i], 0)
				continue
			}
			col.set(&frame.Rows[i], (col.get(&frame.Rows[i])-lo)/span)
		}
	}
}
