package plan

// PlanDetail is a plan together with its active benefits.
type PlanDetail struct {
	Plan
	Benefits []Benefit `json:"benefits"`
}
