package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/interaction/infras/redis"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/constants"
)

// RemoveFunc deletes one parent document. Removing an absent document is
// a no-op.
type RemoveFunc func(ctx context.Context, id primitive.ObjectID) error

// ParentRegistry maps parent kinds to their document removers.
type ParentRegistry map[model.TargetType]RemoveFunc

// StaleLister is the mark-store side the reconciler reads from.
type StaleLister interface {
	Stale(ctx context.Context, olderThan time.Duration) ([]redis.PendingDeletion, error)
}

// Reconciler re-drives cascades whose pending mark outlived the retry age:
// the process died (or storage failed) somewhere between the first
// dependent delete and the final mark clear. Because every cascade step is
// idempotent the whole sequence is simply run again from the top, then the
// parent removal, then the clear.
type Reconciler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cascade  *CascadeService
	parents  ParentRegistry
	marks    StaleLister
	interval time.Duration
	running  bool
}

func NewReconciler(cascade *CascadeService, parents ParentRegistry, marks StaleLister) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		ctx:      ctx,
		cancel:   cancel,
		cascade:  cascade,
		parents:  parents,
		marks:    marks,
		interval: constants.PendingDeletionRetryAfter,
	}
}

func (r *Reconciler) Start() error {
	if r.running {
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	go r.run()
	hlog.Info("Cascade reconciler started")
	return nil
}

func (r *Reconciler) Stop() {
	if !r.running {
		return
	}
	r.running = false
	r.cancel()
	hlog.Info("Cascade reconciler stopped")
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(r.ctx, constants.MaxQueryTime)
	defer cancel()

	stale, err := r.marks.Stale(ctx, r.interval)
	if err != nil {
		hlog.Warnf("Failed to list stale pending deletions: %v", err)
		return
	}
	for _, pending := range stale {
		r.redrive(ctx, pending)
	}
}

func (r *Reconciler) redrive(ctx context.Context, pending redis.PendingDeletion) {
	kind := model.TargetType(pending.ParentType)
	parentID, err := primitive.ObjectIDFromHex(pending.ParentID)
	if err != nil {
		hlog.Warnf("Dropping pending deletion with malformed id %q", pending.ParentID)
		_ = redis.ClearPendingDeletion(ctx, pending.ParentType, pending.ParentID)
		return
	}

	if err := r.cascade.OnDeleteParent(ctx, kind, parentID); err != nil {
		// The parent may already be gone; its dependents are the leftovers.
		r.cascade.ReportViolation(ctx, kind, parentID, "reconcile dependents", err)
		return
	}

	remove, ok := r.parents[kind]
	if !ok {
		hlog.Warnf("No remover registered for parent type %s", kind)
		return
	}
	if err := remove(ctx, parentID); err != nil {
		r.cascade.ReportViolation(ctx, kind, parentID, "reconcile parent", err)
		return
	}
	r.cascade.Finish(ctx, kind, parentID)
	hlog.Infof("Re-drove pending deletion of %s %s", kind, parentID.Hex())
}
