package ruleengine

import (
	"context"
	"time"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/logging"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// Service ties the matcher, executor and timer engine together for one
// deployment: incoming product events flow through invalidation, immediate
// rules and timer scheduling, and fired schedules come back through
// HandleTimerCallback.
type Service struct {
	repo         Repository
	registry     *Registry
	matcher      *Matcher
	executor     *Executor
	timers       *TimerEngine
	resolver     *PlaceholderResolver
	integrations *Integrations
	webhookURL   string
	logger       logger.Logger
}

func NewService(repo Repository, registry *Registry, sched scheduler.API, claimer scheduler.Claimer, integ *Integrations, webhookURL string, log logger.Logger) *Service {
	matcher := NewMatcher(registry, log)
	executor := NewExecutor(registry, log)

	return &Service{
		repo:         repo,
		registry:     registry,
		matcher:      matcher,
		executor:     executor,
		timers:       NewTimerEngine(matcher, executor, sched, claimer, log),
		resolver:     NewPlaceholderResolver(registry, log),
		integrations: integ,
		webhookURL:   webhookURL,
		logger:       log,
	}
}

// Registry exposes the capability registry, primarily so callers can merge
// additional plugin bundles at startup.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Resolver exposes the placeholder resolver shared with plugin actions.
func (s *Service) Resolver() *PlaceholderResolver {
	return s.resolver
}

// ListRules returns all rules configured for an app, in evaluation order.
func (s *Service) ListRules(ctx context.Context, appID string) ([]Rule, error) {
	return s.repo.GetRulesByApp(ctx, appID)
}

// CreateRule persists a new rule for an app. A rule without an explicit
// position is appended after the app's existing rules so the evaluation
// order, and the legacy index-based job identity derived from it, stays
// stable.
func (s *Service) CreateRule(ctx context.Context, rule *Rule) error {
	if rule.Position == 0 {
		existing, err := s.repo.GetRulesByApp(ctx, rule.AppID)
		if err != nil {
			return err
		}
		max := 0
		for _, r := range existing {
			if r.Position > max {
				max = r.Position
			}
		}
		rule.Position = max + 1
	}
	return s.repo.CreateRule(ctx, rule)
}

// ProcessEvent evaluates all configured rules against one product event.
// Invalidation runs first so an event cannot cancel a timer it just
// created; then immediate rules execute; then timer rules are scheduled.
// Failures of the three phases are isolated from each other.
func (s *Service) ProcessEvent(ctx context.Context, payload *models.ProductEventPayload) error {
	props, err := payload.Data.ModelProperties()
	if err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(string(payload.Event), "invalid").Inc()
		return pkgerrors.Wrap(err, pkgerrors.ErrInvalidEvent)
	}

	ctx = logging.WithAppID(ctx, props.AppID)
	ctx = logging.WithConversationID(ctx, props.ConversationID)
	ctx = logging.WithEvent(ctx, string(payload.Event))

	start := time.Now()
	defer func() {
		metrics.ObserveEventProcessing(string(payload.Event), time.Since(start))
	}()

	rules, err := s.repo.GetRulesByApp(ctx, props.AppID)
	if err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(string(payload.Event), "error").Inc()
		return err
	}
	metrics.SetActiveRules(len(rules))

	if err := s.timers.InvalidateTimers(ctx, payload, rules); err != nil {
		s.logger.ErrorwCtx(ctx, "Timer invalidation failed", "error", err)
	}

	s.runImmediateRules(ctx, payload, rules)

	if err := s.timers.TriggerTimers(ctx, payload, rules, s.webhookURL, s.integrations); err != nil {
		s.logger.ErrorwCtx(ctx, "Timer scheduling failed", "error", err)
	}

	metrics.EventsProcessedTotal.WithLabelValues(string(payload.Event), "ok").Inc()
	return nil
}

func (s *Service) runImmediateRules(ctx context.Context, payload *models.ProductEventPayload, rules []Rule) {
	for ruleIndex, rule := range rules {
		if !rule.IsEnabled || rule.IsTimer {
			continue
		}

		matched, err := s.matcher.IsRuleMatching(ctx, payload.Event, &payload.Data, rule, s.integrations)
		if err != nil {
			s.logger.ErrorwCtx(ctx, "Rule evaluation failed",
				"rule_id", rule.ID,
				"rule_index", ruleIndex,
				"error", err,
			)
			continue
		}
		if !matched {
			continue
		}

		s.logger.InfowCtx(ctx, "Rule matched, executing actions",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"actions", len(rule.Actions),
		)

		if _, err := s.executor.HandleActions(ctx, s.integrations, rule.Actions, payload); err != nil {
			s.logger.ErrorwCtx(ctx, "Action execution aborted",
				"rule_id", rule.ID,
				"error", err,
			)
		}
	}
}

// HandleTimerCallback services a fired schedule delivered by the external
// scheduler.
func (s *Service) HandleTimerCallback(ctx context.Context, callback *scheduler.CallbackPayload) error {
	props, err := callback.Data.OriginalPayload.Data.ModelProperties()
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInvalidEvent)
	}

	ctx = logging.WithAppID(ctx, props.AppID)
	ctx = logging.WithConversationID(ctx, props.ConversationID)

	rules, err := s.repo.GetRulesByApp(ctx, props.AppID)
	if err != nil {
		return err
	}

	return s.timers.ExecuteTimerActions(ctx, callback, rules, s.integrations)
}
