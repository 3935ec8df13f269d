package lifecycle

import (
	"sort"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Candidate is one schedulable unit of work the policy ranks.
type Candidate struct {
	ID       string
	Priority int
	Load     float64
	Weight   float64
}

// Policy is the closed-set dispatch strategy interface: each policy
// satisfies one method, no runtime attribute probing (spec.md §9).
type Policy interface {
	Name() valueobjects.SchedulerPolicy
	// Order returns candidate ids in dispatch order.
	Order(candidates []Candidate) []string
}

// Scheduler admission-controls and dispatches per spec.md §4.9.
type Scheduler struct {
	Policy Policy
	Quota  Quota
}

func NewScheduler(policy Policy, quota Quota) *Scheduler {
	return &Scheduler{Policy: policy, Quota: quota}
}

// Dispatch orders candidates per the configured policy.
func (s *Scheduler) Dispatch(candidates []Candidate) []string {
	return s.Policy.Order(candidates)
}

type fifoPolicy struct{}

func (fifoPolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyFIFO }
func (fifoPolicy) Order(c []Candidate) []string {
	out := make([]string, len(c))
	for i, cand := range c {
		out[i] = cand.ID
	}
	return out
}

type priorityPolicy struct{}

func (priorityPolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyPriority }
func (priorityPolicy) Order(c []Candidate) []string {
	sorted := append([]Candidate(nil), c...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return idsOf(sorted)
}

type leastLoadedPolicy struct{}

func (leastLoadedPolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyLeastLoaded }
func (leastLoadedPolicy) Order(c []Candidate) []string {
	sorted := append([]Candidate(nil), c...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Load < sorted[j].Load })
	return idsOf(sorted)
}

type resourceAwarePolicy struct{}

func (resourceAwarePolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyResourceAware }
func (resourceAwarePolicy) Order(c []Candidate) []string {
	sorted := append([]Candidate(nil), c...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Load != sorted[j].Load {
			return sorted[i].Load < sorted[j].Load
		}
		return sorted[i].Priority > sorted[j].Priority
	})
	return idsOf(sorted)
}

type weightedFairPolicy struct{}

func (weightedFairPolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyWeightedFair }
func (weightedFairPolicy) Order(c []Candidate) []string {
	sorted := append([]Candidate(nil), c...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	return idsOf(sorted)
}

type roundRobinPolicy struct{ cursor int }

func (p *roundRobinPolicy) Name() valueobjects.SchedulerPolicy { return valueobjects.PolicyRoundRobin }
func (p *roundRobinPolicy) Order(c []Candidate) []string {
	if len(c) == 0 {
		return nil
	}
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[(p.cursor+i)%len(c)].ID
	}
	p.cursor = (p.cursor + 1) % len(c)
	return out
}

func idsOf(c []Candidate) []string {
	out := make([]string, len(c))
	for i, cand := range c {
		out[i] = cand.ID
	}
	return out
}

// NewPolicy builds the Policy for one of the closed-set scheduler policies
// (spec.md §4.9).
func NewPolicy(p valueobjects.SchedulerPolicy) Policy {
	switch p {
	case valueobjects.PolicyPriority:
		return priorityPolicy{}
	case valueobjects.PolicyResourceAware:
		return resourceAwarePolicy{}
	case valueobjects.PolicyWeightedFair:
		return weightedFairPolicy{}
	case valueobjects.PolicyLeastLoaded:
		return leastLoadedPolicy{}
	case valueobjects.PolicyRoundRobin:
		return &roundRobinPolicy{}
	default:
		return fifoPolicy{}
	}
}
