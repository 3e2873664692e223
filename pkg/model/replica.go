package model

// ReplicaSchedule is one Metropolis-sampled perturbed copy of an
// assignment set, generated by the spin-glass analyzer to probe the
// stability of the schedule's ground state.
type ReplicaSchedule struct {
	ScheduleID           string
	Assignments          []Assignment
	Energy               float64
	Magnetization        float64
	ConstraintViolations map[string]float64
	ReplicaIndex         int
}
