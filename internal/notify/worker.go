package notify

import (
	"context"
	"errors"
	"time"

	"sweeps-casino/internal/notify/platforms"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
)

var errCircuitOpen = errors.New("circuit_open")

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case job := <-m.dispatchCh:
			metricNotifyQueueLen.Set(int64(len(m.dispatchCh)))
			m.processJob(ctx, job)
		}
	}
}

func (m *Manager) processJob(ctx context.Context, job pushJob) {
	adapter := m.adapters[job.Target.Platform]
	if adapter == nil {
		metricNotifyDroppedTotal.Add(1)
		return
	}

	now := time.Now()
	if err := m.beforeSend(job.key(), now); err != nil {
		metricNotifyCircuitOpenTotal.Add(1)
		m.retryOrDrop(job, err)
		return
	}

	err := adapter.Send(ctx, job.Target.Endpoint, job.Target.Secret, toPlatformMessage(job))
	if err != nil {
		metricNotifyFailedTotal.Add(1)
		m.afterFailure(job.key(), time.Now())
		m.retryOrDrop(job, err)
		return
	}

	metricNotifySentTotal.Add(1)
	m.afterSuccess(job.key())
}

func (m *Manager) retryOrDrop(job pushJob, err error) bool {
	if job.Attempt >= m.cfg.RetryMax {
		metricNotifyRetryDroppedTotal.Add(1)
		log.Warn().
			Err(err).
			Str("event", job.Event.EventType).
			Str("tournament_id", job.Event.TournamentID).
			Str("platform", job.Target.Platform).
			Msg("notification dropped")
		return false
	}
	job.Attempt++
	metricNotifyRetryTotal.Add(1)
	m.retryQ.Enqueue(job, m.retryDelay(job.Attempt))
	return true
}

// retryDelay doubles from RetryBase for each attempt, capped at a minute.
func (m *Manager) retryDelay(attempt int) time.Duration {
	b := &backoff.Backoff{Min: m.cfg.RetryBase, Max: time.Minute, Factor: 2}
	return b.ForAttempt(float64(attempt - 1))
}

func (m *Manager) beforeSend(key string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	if !state.openUntil.IsZero() && now.Before(state.openUntil) {
		return errCircuitOpen
	}
	return nil
}

func (m *Manager) afterFailure(key string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	state.consecutiveFailures++
	if state.consecutiveFailures >= m.cfg.FailureThreshold {
		state.openUntil = now.Add(m.cfg.CircuitOpenDuration)
		state.consecutiveFailures = 0
	}
	m.breakerByKey[key] = state
}

func (m *Manager) afterSuccess(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakerByKey[key] = breakerState{}
}

func toPlatformMessage(job pushJob) platforms.Message {
	msg := job.Formatted
	fields := make([]platforms.Field, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, platforms.Field{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return platforms.Message{
		EventID:     job.Event.EventID,
		EventType:   job.Event.EventType,
		Title:       msg.Title,
		Content:     msg.Content,
		Description: msg.Description,
		Color:       msg.Color,
		Timestamp:   msg.Timestamp,
		Footer:      msg.Footer,
		Fields:      fields,
		Payload: map[string]any{
			"event_id":      job.Event.EventID,
			"event":         job.Event.EventType,
			"tournament_id": job.Event.TournamentID,
			"server_ts":     job.Event.ServerTS,
			"data":          job.Event.Raw,
		},
	}
}
