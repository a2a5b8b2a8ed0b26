// Package transfer records movements of item quantities between locations.
//
// Every mutation runs in a single transaction. Lines naming a missing item or
// carrying a non-positive quantity are dropped rather than rejected.
package transfer

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/notify"
	"github.com/erazemk/premiki/internal/store"
)

// Clock supplies creation timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service validates and persists transfers.
type Service struct {
	db       *sql.DB
	notifier notify.Notifier
	clock    Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for creation timestamps.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New returns a Service writing to db. Created transfers are announced on
// notifier, which may be nil.
func New(db *sql.DB, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{db: db, notifier: notifier, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput describes a new transfer.
type CreateInput struct {
	FromLocationID int64            `json:"from_location_id"`
	ToLocationID   int64            `json:"to_location_id"`
	UserID         int64            `json:"-"`
	Lines          []model.LineItem `json:"items"`
}

// EditInput replaces the locations and lines of a transfer.
type EditInput struct {
	FromLocationID int64            `json:"from_location_id"`
	ToLocationID   int64            `json:"to_location_id"`
	Lines          []model.LineItem `json:"items"`
}

// Create records a transfer with its valid lines and announces it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Transfer, error) {
	var t *model.Transfer
	err := store.InTx(ctx, s.db, "creating transfer", func(tx *sql.Tx) error {
		if err := checkLocations(ctx, tx, in.FromLocationID, in.ToLocationID); err != nil {
			return err
		}

		user, err := store.GetUser(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return model.Validationf("unknown user %d", in.UserID)
		}

		lines, err := validLines(ctx, tx, in.Lines)
		if err != nil {
			return err
		}

		id, err := store.InsertTransfer(ctx, tx, &model.Transfer{
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			UserID:         in.UserID,
			DateCreated:    s.clock.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := store.InsertTransferItems(ctx, tx, id, lines); err != nil {
			return err
		}

		t, err = store.GetTransfer(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transfer created", "user", t.UserEmail, "id", t.ID,
		"from", t.FromLocationName, "to", t.ToLocationName, "lines", len(t.Items))
	s.announce(ctx, t)
	return t, nil
}

// Edit replaces the locations and all lines of a transfer.
func (s *Service) Edit(ctx context.Context, id int64, in EditInput) (*model.Transfer, error) {
	var t *model.Transfer
	err := store.InTx(ctx, s.db, "editing transfer", func(tx *sql.Tx) error {
		exists, err := store.TransferExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return model.NotFoundf("transfer %d", id)
		}

		if err := checkLocations(ctx, tx, in.FromLocationID, in.ToLocationID); err != nil {
			return err
		}

		lines, err := validLines(ctx, tx, in.Lines)
		if err != nil {
			return err
		}

		if _, err := store.UpdateTransferLocations(ctx, tx, id, in.FromLocationID, in.ToLocationID); err != nil {
			return err
		}
		if err := store.DeleteTransferItems(ctx, tx, id); err != nil {
			return err
		}
		if err := store.InsertTransferItems(ctx, tx, id, lines); err != nil {
			return err
		}

		t, err = store.GetTransfer(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transfer edited", "id", id, "lines", len(t.Items))
	return t, nil
}

// Delete removes a transfer and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := store.InTx(ctx, s.db, "deleting transfer", func(tx *sql.Tx) error {
		deleted, err := store.DeleteTransfer(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return model.NotFoundf("transfer %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("transfer deleted", "id", id)
	return nil
}

// SetCompleted sets or clears the completion flag.
func (s *Service) SetCompleted(ctx context.Context, id int64, completed bool) error {
	updated, err := store.SetTransferCompleted(ctx, s.db, id, completed)
	if err != nil {
		return err
	}
	if !updated {
		return model.NotFoundf("transfer %d", id)
	}

	slog.Info("transfer completion changed", "id", id, "completed", completed)
	return nil
}

// List returns transfers matching filter, newest first. An empty filter
// lists transfers that are not completed.
func (s *Service) List(ctx context.Context, filter model.TransferFilter) ([]model.Transfer, error) {
	filter, err := model.ParseTransferFilter(string(filter))
	if err != nil {
		return nil, err
	}

	transfers, err := store.ListTransfers(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	return transfers, nil
}

// Get returns one transfer with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*model.Transfer, error) {
	t, err := store.GetTransfer(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, model.NotFoundf("transfer %d", id)
	}
	return t, nil
}

// announce publishes the created event. Failures are logged only.
func (s *Service) announce(ctx context.Context, t *model.Transfer) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Notify(ctx, notify.EventTransferCreated, notify.TransferCreated{
		TransferID:     t.ID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		UserID:         t.UserID,
		Lines:          len(t.Items),
		TotalQuantity:  t.TotalQuantity(),
		DateCreated:    t.DateCreated,
	})
	if err != nil {
		slog.Warn("failed to publish transfer event", "id", t.ID, "error", err)
	}
}

func checkLocations(ctx context.Context, q store.Querier, ids ...int64) error {
	for _, id := range ids {
		exists, err := store.LocationExists(ctx, q, id)
		if err != nil {
			return err
		}
		if !exists {
			return model.Validationf("unknown location %d", id)
		}
	}
	return nil
}

// validLines drops lines with a non-positive quantity or a missing item.
func validLines(ctx context.Context, q store.Querier, lines []model.LineItem) ([]model.LineItem, error) {
	var ids []int64
	for _, l := range lines {
		if l.Valid() {
			ids = append(ids, l.ItemID)
		}
	}

	found, err := store.ExistingItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	return model.FilterLines(lines, func(id int64) bool { return found[id] }), nil
}
