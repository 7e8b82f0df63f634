package letchain

import (
	"fmt"
	"log/slog"
)

// Point based end-to-end latency of LET chains after
// J. Martinez, I. Sañudo and M. Bertogna, "Analytical Characterization of End-to-End
// Communication Delays With Logical Execution Time", IEEE TCAD 37(11), 2018.
//
// Communication between a writer and a reader is indexed by n. The n-th communication
// instant is anchor + n*max(Tw, Tr), where the anchor is the offset of the slower task of the
// pair (the reader on ties). The reading point is the first reader release at or after the
// instant, the publishing point the last writer release (i.e. LET output instant) at or
// before the reading point. Anchoring on the slower task keeps every distinct value that
// crosses the link represented by exactly one reading point, also with arbitrary offsets.

func linkAnchor(writer, reader *Task) Ttick {
	if writer.Period > reader.Period {
		return writer.Offset
	}
	return reader.Offset
}

func linkStep(writer, reader *Task) Ttick {
	return max(writer.Period, reader.Period)
}

// readingPoint is Eq. 4: the n-th reading point of the link.
func readingPoint(writer, reader *Task, n int64) Ttick {
	instant := linkAnchor(writer, reader) + Ttick(n)*linkStep(writer, reader)
	return reader.Offset + ceilDiv(instant-reader.Offset, reader.Period)*reader.Period
}

// publishingPoint is Eq. 3: the output instant whose value the n-th reading point samples.
func publishingPoint(writer, reader *Task, n int64) Ttick {
	rp := readingPoint(writer, reader, n)
	return writer.Offset + floorDiv(rp-writer.Offset, writer.Period)*writer.Period
}

// readingIndexAtOrAfter returns the smallest n with readingPoint(n) >= t. n may be negative.
func readingIndexAtOrAfter(writer, reader *Task, t Ttick) int64 {
	// readingPoint(n) lies in [instant(n), instant(n)+Tr) and Tr <= step, so this start is
	// below t and the loop runs at most a few times.
	n := int64(floorDiv(t-linkAnchor(writer, reader), linkStep(writer, reader))) - 1
	for readingPoint(writer, reader, n) < t {
		n++
	}
	return n
}

// startOfBasicPath walks the basic path that ends at reading point n of the last link back
// to the publishing point of the first task (Algorithm 1).
func startOfBasicPath(chain Chain, n int64) Ttick {
	last := len(chain) - 1
	pp := publishingPoint(chain[last-1], chain[last], n)

	for i := last - 1; i >= 1; i-- {
		writer, reader := chain[i-1], chain[i]
		// largest reading point strictly before the current publishing point
		m := readingIndexAtOrAfter(writer, reader, pp) - 1
		pp = publishingPoint(writer, reader, m)
	}
	return pp
}

// basicPathLatency is Eq. 5, extended by the last period so the age lasts until the output
// of the path is overwritten.
func basicPathLatency(chain Chain, publishingPoint, readingPoint, nextReadingPoint Ttick) Ttick {
	theta := readingPoint - publishingPoint
	latency := chain[0].Period + theta + nextReadingPoint - readingPoint
	return latency + chain[len(chain)-1].Period
}

type basicPath struct {
	n  int64
	rp Ttick
}

// AnalyticLatency computes the worst-case data age from reading and publishing points only,
// without enumerating jobs. It does not modify the chain.
func AnalyticLatency(chain Chain) (Ttick, error) {
	if err := chain.Validate(); err != nil {
		return 0, err
	}

	last := chain[len(chain)-1]
	secondLast := chain[len(chain)-2]

	// Start late enough that every basic path begins after all offsets.
	worstCaseLatency := DavareBound(chain)
	hp := Hyperperiod(chain)
	from := worstCaseLatency + chain.MaxOffset()
	until := from + hp

	// Only the latest reading point of each basic path start needs to be analysed.
	starts := []Ttick{}
	latest := map[Ttick]basicPath{}
	for n := readingIndexAtOrAfter(secondLast, last, from); ; n++ {
		rp := readingPoint(secondLast, last, n)
		if rp >= until {
			break
		}
		start := startOfBasicPath(chain, n)
		if _, ok := latest[start]; !ok {
			starts = append(starts, start)
		}
		latest[start] = basicPath{n: n, rp: rp}
	}
	if len(starts) == 0 {
		return 0, fmt.Errorf("chain %v: %w", chain, ErrNoPropagation)
	}

	maxLatency := Ttick(0)
	for _, start := range starts {
		bp := latest[start]
		nextRp := readingPoint(secondLast, last, bp.n+1)
		if l := basicPathLatency(chain, start, bp.rp, nextRp); l > maxLatency {
			maxLatency = l
		}
	}

	logger.Debug("analytic latency",
		slog.String("chain", chain.String()),
		slog.Int("basic_paths", len(starts)),
		slog.Int64("latency", int64(maxLatency)))
	return maxLatency, nil
}
