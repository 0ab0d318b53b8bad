package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/clock"
	"escrowhub/internal/gateway"
	"escrowhub/internal/journal"
	"escrowhub/internal/locker"
	"escrowhub/internal/model"
	"escrowhub/internal/repository"
	"escrowhub/internal/store"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/metrics"
	"escrowhub/pkg/rbac"
)

const ledgerLockKey = "lock:ledger"

type Options struct {
	Store          store.Store
	Gateway        gateway.Gateway
	Publisher      journal.EventPublisher
	Locker         locker.Locker
	Clock          clock.Clock
	CustodyAddress string
	Logger         *zap.Logger
}

// Ledger runs every marketplace, crowdfunding and payment operation against one custody account.
// Mutations are serialized through the ledger lock; reads are not.
type Ledger struct {
	store     store.Store
	users     *repository.UserRepository
	jobs      *repository.JobRepository
	campaigns *repository.CampaignRepository
	payments  *repository.PaymentRepository
	journal   *journal.Journal
	gateway   gateway.Gateway
	locker    locker.Locker
	clock     clock.Clock
	custody   string
	logger    *zap.Logger
}

func New(opts Options) (*Ledger, error) {
	if opts.Store == nil || opts.Gateway == nil {
		return nil, errors.New("ledger needs a store and a gateway")
	}
	if opts.CustodyAddress == "" {
		return nil, errors.New("ledger needs a custody address")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Locker == nil {
		opts.Locker = locker.NewLocalLocker()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := logger.Ledger(opts.Logger, opts.CustodyAddress)

	txRepo := repository.NewTransactionRepository(opts.Store, log)
	return &Ledger{
		store:     opts.Store,
		users:     repository.NewUserRepository(opts.Store, log),
		jobs:      repository.NewJobRepository(opts.Store, log),
		campaigns: repository.NewCampaignRepository(opts.Store, log),
		payments:  repository.NewPaymentRepository(opts.Store, log),
		journal:   journal.New(txRepo, opts.Clock, opts.CustodyAddress, opts.Publisher, log),
		gateway:   opts.Gateway,
		locker:    opts.Locker,
		clock:     opts.Clock,
		custody:   opts.CustodyAddress,
		logger:    log,
	}, nil
}

func (l *Ledger) CustodyAddress() string { return l.custody }

func (l *Ledger) Journal() *journal.Journal { return l.journal }

// mutate runs fn under the ledger lock and records the outcome.
func (l *Ledger) mutate(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := l.locker.WithLock(ctx, ledgerLockKey, fn)
	metrics.RecordOperation(op, resultLabel(err), time.Since(start))
	if err != nil {
		logger.WithTrace(ctx, l.logger).Warn("Ledger operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	for _, e := range []model.Err{
		model.ErrNotFound, model.ErrUnauthorized, model.ErrInvalidState, model.ErrDeadlinePassed,
		model.ErrDeadlineNotReached, model.ErrTransferFailed, model.ErrInvalidArgument, model.ErrConflict,
	} {
		if errors.Is(err, e) {
			return strings.ReplaceAll(string(e), " ", "_")
		}
	}
	return "error"
}

// transfer moves funds through the gateway. A non-empty key names the payment so a retry after a
// transfer whose journal entry was never written is not applied twice.
func (l *Ledger) transfer(ctx context.Context, key, token, from, to string, amount decimal.Decimal) error {
	if err := l.gateway.Transfer(gateway.WithIdempotencyKey(ctx, key), token, from, to, amount); err != nil {
		return fmt.Errorf("%w: %w", model.ErrTransferFailed, err)
	}
	return nil
}

type initMarker struct {
	InitializedAt time.Time `json:"initialized_at"`
}

// Initialize seeds zeroed counters once. Later calls change nothing and report true.
func (l *Ledger) Initialize(ctx context.Context) (bool, error) {
	already := false
	err := l.mutate(ctx, "initialize", func() error {
		_, ok, err := l.store.Get(ctx, store.KeyInitialized)
		if err != nil {
			return err
		}
		if ok {
			already = true
			return nil
		}
		for _, name := range store.Counters {
			if err := repository.NewCounter(l.store, name).Seed(ctx); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(initMarker{InitializedAt: l.clock.Now()})
		if err != nil {
			return err
		}
		return l.store.Set(ctx, store.KeyInitialized, raw)
	})
	if err == nil && !already {
		l.logger.Info("Ledger initialized")
	}
	return already, err
}

// RegisterUser assigns address its role. A role is assigned once and never changed.
func (l *Ledger) RegisterUser(ctx context.Context, address string, role model.Role) (*model.User, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", model.ErrInvalidArgument)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidArgument, role)
	}

	var user *model.User
	err := l.mutate(ctx, "register_user", func() error {
		if existing, err := l.users.Get(ctx, address); err == nil {
			return fmt.Errorf("%w: %s is already registered as %s", model.ErrConflict, address, existing.Role)
		} else if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		user = &model.User{Address: address, Role: role, Jobs: []int64{}, RegisteredAt: l.clock.Now()}
		return l.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	logger.WithTrace(ctx, l.logger).Info("User registered", zap.String("address", address), zap.String("role", string(role)))
	return user, nil
}

func (l *Ledger) GetUser(ctx context.Context, address string) (*model.User, error) {
	return l.users.Get(ctx, address)
}

// authorize loads the caller and checks its role grants permission.
func (l *Ledger) authorize(ctx context.Context, address, permission string) (*model.User, error) {
	user, err := l.users.Get(ctx, address)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s is not registered", model.ErrUnauthorized, address)
	}
	if err != nil {
		return nil, err
	}
	if err := rbac.CheckPermission(string(user.Role), permission); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
	}
	return user, nil
}

// GetBalance asks the gateway for address's balance of token.
func (l *Ledger) GetBalance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	return l.gateway.Balance(ctx, token, address)
}
