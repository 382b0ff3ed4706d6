package ruleengine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// TimerEngine orchestrates the scheduling lifecycle of timer rules. A
// (rule, conversation) binding moves NONE -> SCHEDULED -> FIRED or
// INVALIDATED; once scheduled, a timer fires unless explicitly
// invalidated — there is no trigger re-validation at fire time.
type TimerEngine struct {
	matcher   *Matcher
	executor  *Executor
	scheduler scheduler.API
	claimer   scheduler.Claimer
	logger    logger.Logger
	now       func() time.Time
}

func NewTimerEngine(matcher *Matcher, executor *Executor, sched scheduler.API, claimer scheduler.Claimer, log logger.Logger) *TimerEngine {
	return &TimerEngine{
		matcher:   matcher,
		executor:  executor,
		scheduler: sched,
		claimer:   claimer,
		logger:    log,
		now:       time.Now,
	}
}

// JobID derives the deterministic schedule identity for a rule bound to a
// conversation. Rules carrying a stable ID use it; rules without one fall
// back to their list position, which breaks when the rule list is edited
// while timers are in flight.
func JobID(props *models.ModelProperties, rule Rule, ruleIndex int) string {
	key := rule.ID
	if key == "" {
		key = strconv.Itoa(ruleIndex)
	}
	return fmt.Sprintf("%s_%s_%s", props.AppID, props.ConversationID, key)
}

// TriggerTimers schedules every enabled, matching timer rule for the
// event's conversation. Scheduling is per-rule isolated: a rule that
// fails to evaluate does not block the others. All queued schedules are
// submitted in one bulk-create call; its failure is reported as a single
// aggregate error.
func (e *TimerEngine) TriggerTimers(ctx context.Context, payload *models.ProductEventPayload, rules []Rule, webhookURL string, integ *Integrations) error {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInvalidEvent)
	}

	var toCreate []scheduler.Schedule
	var claimed []string

	for ruleIndex, rule := range rules {
		if !rule.Schedulable() {
			continue
		}

		matched, err := e.matcher.IsRuleMatching(ctx, payload.Event, &payload.Data, rule, integ)
		if err != nil {
			e.logger.ErrorwCtx(ctx, "Timer rule evaluation failed",
				"rule_id", rule.ID,
				"rule_index", ruleIndex,
				"error", err,
			)
			continue
		}
		if !matched {
			continue
		}

		jobID := JobID(props, rule, ruleIndex)

		ok, err := e.claimJob(ctx, jobID, rule)
		if err != nil {
			e.logger.ErrorwCtx(ctx, "Schedule existence check failed, skipping rule",
				"job_id", jobID,
				"error", err,
			)
			continue
		}
		if !ok {
			// A schedule for this conversation is already pending;
			// re-triggering must stay idempotent.
			e.logger.DebugwCtx(ctx, "Schedule already exists, skipping", "job_id", jobID)
			continue
		}
		claimed = append(claimed, jobID)

		toCreate = append(toCreate, scheduler.Schedule{
			JobID: jobID,
			Payload: scheduler.JobPayload{
				JobID:           jobID,
				RuleID:          rule.ID,
				RuleIndex:       ruleIndex,
				OriginalPayload: *payload,
			},
			ScheduledTime: e.now().Add(time.Duration(rule.TimerValue) * time.Second),
			WebhookURL:    webhookURL,
		})
	}

	if len(toCreate) == 0 {
		return nil
	}

	if err := e.scheduler.BulkCreateSchedules(ctx, toCreate); err != nil {
		e.releaseClaims(ctx, claimed)
		return pkgerrors.Wrap(err, pkgerrors.ErrScheduleCreate)
	}

	metrics.TimersTotal.WithLabelValues("scheduled").Add(float64(len(toCreate)))
	e.logger.InfowCtx(ctx, "Created timer schedules", "count", len(toCreate))
	return nil
}

// claimJob reports whether this invocation owns the jobID. With a claimer
// wired the check is an atomic create-if-absent; otherwise it degrades to
// the scheduler's fetch call, which leaves a window where two concurrent
// invocations can both schedule the same job.
func (e *TimerEngine) claimJob(ctx context.Context, jobID string, rule Rule) (bool, error) {
	if e.claimer != nil {
		ttl := time.Duration(rule.TimerValue) * time.Second
		return e.claimer.Claim(ctx, jobID, ttl)
	}

	existing, err := e.scheduler.FetchSchedule(ctx, jobID)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

func (e *TimerEngine) releaseClaims(ctx context.Context, jobIDs []string) {
	if e.claimer == nil || len(jobIDs) == 0 {
		return
	}
	if err := e.claimer.Release(ctx, jobIDs...); err != nil {
		e.logger.WarnwCtx(ctx, "Failed to release job claims", "error", err)
	}
}

// InvalidateTimers cancels pending schedules for every enabled timer rule
// whose invalidator set matches the incoming event. All cancellations go
// out in one bulk-delete call; deleting a job the scheduler no longer
// knows is not an error.
func (e *TimerEngine) InvalidateTimers(ctx context.Context, payload *models.ProductEventPayload, rules []Rule) error {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInvalidEvent)
	}

	var jobIDs []string
	for ruleIndex, rule := range rules {
		if !rule.IsEnabled || !rule.IsTimer || rule.Invalidators == nil {
			continue
		}

		matched, err := e.matcher.IsTriggerConditionMatching(ctx, payload.Event, &payload.Data, *rule.Invalidators, nil)
		if err != nil {
			e.logger.ErrorwCtx(ctx, "Invalidator evaluation failed",
				"rule_id", rule.ID,
				"rule_index", ruleIndex,
				"error", err,
			)
			continue
		}
		if matched {
			jobIDs = append(jobIDs, JobID(props, rule, ruleIndex))
		}
	}

	if len(jobIDs) == 0 {
		return nil
	}

	if err := e.scheduler.BulkDeleteSchedules(ctx, jobIDs); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	e.releaseClaims(ctx, jobIDs)

	metrics.TimersTotal.WithLabelValues("invalidated").Add(float64(len(jobIDs)))
	e.logger.InfowCtx(ctx, "Invalidated timer schedules", "job_ids", jobIDs)
	return nil
}

// ExecuteTimerActions runs a fired timer's actions. The schedule is
// deleted before anything else: if that delete fails the whole call is
// fatal, so a retried fire callback cannot act twice. A callback whose
// rule no longer exists still deletes the schedule and returns nil.
func (e *TimerEngine) ExecuteTimerActions(ctx context.Context, callback *scheduler.CallbackPayload, rules []Rule, integ *Integrations) error {
	if err := e.scheduler.DeleteSchedule(ctx, callback.Data.JobID); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrScheduleDelete)
	}
	e.releaseClaims(ctx, []string{callback.Data.JobID})

	rule, ok := e.resolveRule(callback.Data, rules)
	if !ok {
		e.logger.WarnwCtx(ctx, "Fired timer references a rule that no longer exists",
			"job_id", callback.Data.JobID,
			"rule_id", callback.Data.RuleID,
			"rule_index", callback.Data.RuleIndex,
		)
		metrics.TimersTotal.WithLabelValues("orphaned").Inc()
		return nil
	}

	if len(rule.Actions) == 0 {
		return nil
	}

	metrics.TimersTotal.WithLabelValues("fired").Inc()
	_, err := e.executor.HandleActions(ctx, integ, rule.Actions, &callback.Data.OriginalPayload)
	return err
}

// resolveRule prefers the stable rule ID embedded in the job payload and
// falls back to the positional index for payloads created before rules
// carried IDs.
func (e *TimerEngine) resolveRule(data scheduler.JobPayload, rules []Rule) (Rule, bool) {
	if data.RuleID != "" {
		for _, rule := range rules {
			if rule.ID == data.RuleID {
				return rule, true
			}
		}
		return Rule{}, false
	}

	if data.RuleIndex >= 0 && data.RuleIndex < len(rules) {
		return rules[data.RuleIndex], true
	}
	return Rule{}, false
}
