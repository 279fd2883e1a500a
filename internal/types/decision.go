package types

// UserStatus is the engagement classification derived from recent behavior.
type UserStatus string

const (
	UserStatusActive     UserStatus = "active"
	UserStatusRecovering UserStatus = "recovering"
	UserStatusAtRisk     UserStatus = "at_risk"
)

// PlanAdjustment is the deterministic policy output.
type PlanAdjustment string

const (
	AdjustmentKeep              PlanAdjustment = "keep"
	AdjustmentReduceScope       PlanAdjustment = "reduce_scope"
	AdjustmentRepeatConcepts    PlanAdjustment = "repeat_concepts"
	AdjustmentIncreaseChallenge PlanAdjustment = "increase_challenge"
)

// Signals are the behavioral scores plus the derived status. Scores live in
// [0, 1], rounded to two decimals.
type Signals struct {
	Adherence float64    `json:"adherence"`
	Knowledge float64    `json:"knowledge"`
	Retention float64    `json:"retention"`
	Status    UserStatus `json:"status"`
}

type Action struct {
	PlanAdjustment PlanAdjustment `json:"plan_adjustment"`
	RiskMitigation []string       `json:"risk_mitigation"`
}

type NextTask struct {
	Task       string   `json:"task"`
	TimeboxMin int      `json:"timebox_min"`
	Type       TaskType `json:"type"`
	Priority   int      `json:"priority,omitempty"`
}

// ResourceUsed is a citation from the resource lookup sidecar.
type ResourceUsed struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// AgentDecision is the uniform contract every coaching command returns.
type AgentDecision struct {
	Reason        string         `json:"reason"`
	Advice        string         `json:"advice,omitempty"`
	Signals       Signals        `json:"signals"`
	Action        Action         `json:"action"`
	NextTasks     []NextTask     `json:"next_tasks"`
	ResourcesUsed []ResourceUsed `json:"resources_used"`
	QualityScore  float64        `json:"quality_score"`
	QualityFlags  []string       `json:"quality_flags"`
}
