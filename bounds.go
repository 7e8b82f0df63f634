package letchain

// DavareBound is the offset independent worst-case data age bound of Davare et al. (DAC '07)
// without response times: every task contributes two periods.
func DavareBound(chain Chain) Ttick {
	bound := Ttick(0)
	for _, t := range chain {
		bound += 2 * t.Period
	}
	return bound
}

// DavareDeadlineBound is the period+deadline variant. It only equals DavareBound when all
// deadlines are implicit.
func DavareDeadlineBound(chain Chain) Ttick {
	bound := Ttick(0)
	for _, t := range chain {
		bound += t.Period + t.Deadline
	}
	return bound
}

// dptHorizon is how far past the last root job the DPT enumerates jobs. Under LET a branch
// never spans more than two periods per task, so constrained deadlines must not shrink it.
func dptHorizon(chain Chain) Ttick {
	return max(DavareBound(chain), DavareDeadlineBound(chain))
}
