package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/types"
)

func TestReinforceRuleInsertsAtHalfConfidence(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	ctx := context.Background()

	if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "User skipped learning session"); err != nil {
		t.Fatalf("reinforce: %v", err)
	}

	rule, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule == nil {
		t.Fatal("expected a rule to be created")
	}
	if rule.Confidence != 0.5 {
		t.Fatalf("expected confidence 0.5, got %v", rule.Confidence)
	}
	if rule.RuleValue != "User skipped learning session" {
		t.Fatalf("unexpected rule value %q", rule.RuleValue)
	}
}

func TestReinforceRuleBumpsAndCapsConfidence(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	ctx := context.Background()

	if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "first"); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "ignored on update"); err != nil {
		t.Fatalf("reinforce: %v", err)
	}

	rule, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule.Confidence != 0.6 {
		t.Fatalf("expected confidence exactly 0.6 after one reinforcement, got %v", rule.Confidence)
	}
	if rule.RuleValue != "first" {
		t.Fatalf("reinforcement must not rewrite the value, got %q", rule.RuleValue)
	}

	// Four more reinforcements walk 0.7, 0.8, 0.9, 1.0 with no float drift.
	for i := 0; i < 4; i++ {
		if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "first"); err != nil {
			t.Fatalf("reinforce: %v", err)
		}
	}
	rule, err = env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule.Confidence != 1.0 {
		t.Fatalf("expected confidence exactly 1.0 after five reinforcements, got %v", rule.Confidence)
	}

	// Further reinforcement never exceeds the cap.
	if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "first"); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	rule, err = env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule.Confidence != 1.0 {
		t.Fatalf("expected confidence to stay at 1.0, got %v", rule.Confidence)
	}
}

func TestDetectPatternsSkipTriggers(t *testing.T) {
	cases := []struct {
		name      string
		yesterday string
		triggers  bool
	}{
		{"empty", "", true},
		{"nothing", "nothing", true},
		{"mixed case with spaces", "  Nothing  ", true},
		{"didn't do anything", "didn't do anything", true},
		{"skipped", "SKIPPED", true},
		{"productive day", "read two chapters", false},
		{"skip mentioned mid-sentence", "almost skipped but studied", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			userID := uuid.New()
			ctx := context.Background()

			if err := env.memory.DetectPatterns(ctx, userID, tc.yesterday, ""); err != nil {
				t.Fatalf("detect patterns: %v", err)
			}

			rule, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
			if err != nil {
				t.Fatalf("get rule: %v", err)
			}
			if tc.triggers && rule == nil {
				t.Fatalf("expected a task_skip rule for %q", tc.yesterday)
			}
			if !tc.triggers && rule != nil {
				t.Fatalf("did not expect a task_skip rule for %q", tc.yesterday)
			}
		})
	}
}

func TestDetectPatternsTimeConstraint(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	ctx := context.Background()

	if err := env.memory.DetectPatterns(ctx, userID, "read a chapter", "No TIME this week"); err != nil {
		t.Fatalf("detect patterns: %v", err)
	}

	rule, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTimeConstraint)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule == nil {
		t.Fatal("expected a time_constraint rule")
	}

	skip, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if skip != nil {
		t.Fatal("a productive day must not create a task_skip rule")
	}
}

func TestListActiveRulesOrderedByConfidence(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	ctx := context.Background()

	if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTimeConstraint, "shorter tasks"); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := env.memory.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "skips sessions"); err != nil {
			t.Fatalf("reinforce: %v", err)
		}
	}

	rules, err := env.memory.ListActiveRules(ctx, userID)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].RuleType != types.RuleTypeTaskSkip {
		t.Fatalf("expected the reinforced rule first, got %q", rules[0].RuleType)
	}
}
