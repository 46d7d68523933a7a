package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"OilTracker/internal/analytics"
	"OilTracker/internal/model"
	"OilTracker/internal/notifier"
	"OilTracker/internal/store"
	"OilTracker/internal/watch"
)

// historyLimit is the number of snapshots shown by /history.
const historyLimit = 10

// retrier is implemented by notifiers that can retry delivery themselves.
type retrier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic scoring jobs and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analytics *analytics.Service
	Store     store.Store
	Watch     *watch.Watcher
	Notifier  notifier.Notifier
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *analytics.Service, st store.Store, w *watch.Watcher, n notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analytics: svc,
		Store:     st,
		Watch:     w,
		Notifier:  n,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the score snapshot and digest jobs.
func (s *Scheduler) RegisterAll(scoreCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(scoreCron, s.scoreTask); err != nil {
		return fmt.Errorf("register score task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScoreNow executes the score task immediately.
func (s *Scheduler) RunScoreNow() {
	s.scoreTask()
}

// scoreTask snapshots every grade's score and alerts on bucket changes.
func (s *Scheduler) scoreTask() {
	start := s.now()
	log.Info().Msg("running score task")

	grades, err := s.Store.ListGrades(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("score task: list grades")
		return
	}

	recorded := 0
	for _, g := range grades {
		snap, err := s.Analytics.Snapshot(s.Ctx, g.ID, start)
		if errors.Is(err, analytics.ErrNoData) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Int("grade_id", g.ID).Msg("score task: snapshot")
			continue
		}
		if err := s.Store.RecordScore(s.Ctx, snap); err != nil {
			log.Error().Err(err).Int("grade_id", g.ID).Msg("score task: record snapshot")
			continue
		}
		recorded++

		gs := model.GradeScore{
			GradeID:   snap.GradeID,
			GradeName: snap.GradeName,
			ScoreResult: model.ScoreResult{
				Indicators: snap.Indicators,
				Score:      snap.Score,
				Bucket:     snap.Bucket,
				Comment:    snap.Comment,
			},
		}
		tr, err := s.Watch.Observe(gs, snap.AsOf)
		if err != nil {
			log.Error().Err(err).Int("grade_id", g.ID).Msg("score task: save watch state")
		}
		if tr != nil {
			s.trySend(notifier.FormatTransition(*tr))
		}
	}

	log.Info().Int("grades", len(grades)).Int("recorded", recorded).
		Dur("duration", time.Since(start)).Msg("score task done")
}

func (s *Scheduler) digestTask() {
	log.Info().Msg("running digest task")
	scores, err := s.Analytics.ScoreAll(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("digest task: score grades")
		return
	}
	s.trySend(notifier.FormatDigest(scores, s.now()))
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats append the bot name: /scores@OilTrackerBot.
	name, _, _ := strings.Cut(fields[0], "@")

	switch name {
	case "/scores":
		scores, err := s.Analytics.ScoreAll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("command /scores")
			return "❌ Scoring failed, try again later."
		}
		return notifier.FormatDigest(scores, s.now())

	case "/grade":
		id, errMsg := gradeArg(fields)
		if errMsg != "" {
			return errMsg
		}
		score, err := s.Analytics.ScoreGrade(ctx, id)
		if err != nil {
			return s.commandError(name, id, err)
		}
		interp, err := s.Analytics.InterpretGrade(ctx, id)
		if err != nil {
			return s.commandError(name, id, err)
		}
		reply := notifier.FormatGradeReport(score, interp)
		if gw, ok := s.Watch.Get(id); ok {
			reply += "\n\n👀 " + notifier.FormatWatchLine(gw)
		}
		return reply

	case "/watch":
		return notifier.FormatWatch(s.Watch.List())

	case "/history":
		id, errMsg := gradeArg(fields)
		if errMsg != "" {
			return errMsg
		}
		g, err := s.Store.GetGrade(ctx, id)
		if err != nil {
			return s.commandError(name, id, err)
		}
		snaps, err := s.Store.ScoreHistory(ctx, id, historyLimit)
		if err != nil {
			return s.commandError(name, id, err)
		}
		return notifier.FormatHistory(g.Name, snaps)

	default:
		return notifier.FormatHelp()
	}
}

func gradeArg(fields []string) (int, string) {
	if len(fields) < 2 {
		return 0, fmt.Sprintf("Usage: %s &lt;grade id&gt;", fields[0])
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id <= 0 {
		return 0, fmt.Sprintf("Invalid grade id %q", html.EscapeString(fields[1]))
	}
	return id, ""
}

func (s *Scheduler) commandError(cmd string, id int, err error) string {
	switch {
	case errors.Is(err, analytics.ErrNoData):
		return fmt.Sprintf("No data for grade %d.", id)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("Grade %d not found.", id)
	}
	log.Error().Err(err).Str("command", cmd).Int("grade_id", id).Msg("command failed")
	return "❌ Command failed, try again later."
}

func (s *Scheduler) trySend(text string) {
	var err error
	if r, ok := s.Notifier.(retrier); ok {
		err = r.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(s.Ctx, text)
	}
	if err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
