package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"EtfSentinel/internal/controller"
	"EtfSentinel/internal/notifier"
	"EtfSentinel/internal/statestore"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily decision cycle on a cron schedule and serves
// Telegram commands. The mutex keeps a manual /run from overlapping with the
// cron tick inside this process; overlap across processes is the
// controller's problem and is absorbed by its idempotency gate.
type Scheduler struct {
	Cron       *cron.Cron
	Controller *controller.Controller
	Store      statestore.Store
	Notifier   *notifier.TelegramNotifier
	Ctx        context.Context
	mu         sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ctrl *controller.Controller, store statestore.Store, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Controller: ctrl,
		Store:      store,
		Notifier:   tn,
		Ctx:        ctx,
	}
}

// Register adds the daily decision task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the decision task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("[INFO] running daily decision task")
	outcome, err := s.Controller.Run(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] daily decision: %v", err)
		s.trySend(fmt.Sprintf("❌ 决策周期失败: %v", err))
		return
	}
	if outcome.NoOp {
		log.Printf("[INFO] daily decision: already decided today (%s)", outcome.Action)
		return
	}
	log.Printf("[INFO] daily decision: %s (%s)", outcome.Action, outcome.Reason)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "查看状态", "/status":
		state, err := s.Store.Read(s.Ctx, s.Controller.Ticker)
		if err != nil {
			if errors.Is(err, statestore.ErrNotFound) {
				return fmt.Sprintf("%s 还没有任何状态，等待首次运行", s.Controller.Ticker)
			}
			return fmt.Sprintf("读取状态失败: %v", err)
		}
		return notifier.FormatStatus(state)
	case "立即运行", "/run":
		s.mu.Lock()
		outcome, err := s.Controller.Run(s.Ctx)
		s.mu.Unlock()
		if err != nil {
			return fmt.Sprintf("❌ 决策周期失败: %v", err)
		}
		return notifier.FormatOutcome(s.Controller.Ticker, outcome)
	default:
		return "可用命令:\n• 查看状态 (/status)\n• 立即运行 (/run)"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
