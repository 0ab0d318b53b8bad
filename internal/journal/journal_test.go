package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"escrowhub/contracts/mq"
	"escrowhub/internal/clock"
	"escrowhub/internal/model"
	"escrowhub/internal/repository"
	"escrowhub/internal/store"
)

const custody = "custody"

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []mq.TransactionRecordedPayload
	err    error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	p.events = append(p.events, payload.(mq.TransactionRecordedPayload))
	return p.err
}

func newJournal(t *testing.T, s store.Store, pub EventPublisher) (*Journal, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := repository.NewTransactionRepository(s, zap.NewNop())
	return New(repo, clk, custody, pub, zap.NewNop()), clk
}

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRecord_AssignsSequentialIDsAndTimestamps(t *testing.T) {
	ctx := context.Background()
	j, clk := newJournal(t, store.NewMemoryStore(), nil)

	first, err := j.Record(ctx, "a", "b", amt(5), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, clk.Now(), first.Timestamp)

	clk.Advance(time.Minute)
	second, err := j.Record(ctx, "b", "b", amt(-3), "odd but allowed", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, clk.Now(), second.Timestamp)

	all, err := j.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "hello", all[0].Message)
}

func TestHistory_FiltersByEitherParty(t *testing.T) {
	ctx := context.Background()
	j, _ := newJournal(t, store.NewMemoryStore(), nil)

	_, _ = j.Record(ctx, "a", "b", amt(1), "x", "")
	_, _ = j.Record(ctx, "c", "d", amt(2), "y", "")
	_, _ = j.Record(ctx, "d", "a", amt(3), "z", "")

	h, err := j.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, int64(1), h[0].ID)
	assert.Equal(t, int64(3), h[1].ID)

	none, err := j.History(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContributionAndRefunds(t *testing.T) {
	ctx := context.Background()
	j, _ := newJournal(t, store.NewMemoryStore(), nil)
	ref := model.RefCampaign(1)

	_, _ = j.Record(ctx, "alice", custody, amt(100), model.MessageCampaignFunding, ref)
	_, _ = j.Record(ctx, "bob", custody, amt(50), model.MessageCampaignFunding, ref)
	_, _ = j.Record(ctx, "alice", custody, amt(100), model.MessageCampaignFunding, ref)
	// other campaign and unrelated movements do not count
	_, _ = j.Record(ctx, "alice", custody, amt(7), model.MessageCampaignFunding, model.RefCampaign(2))
	_, _ = j.Record(ctx, "alice", custody, amt(9), model.MessageJobCreation, model.RefJob(1))
	_, _ = j.Record(ctx, "alice", "bob", amt(11), model.MessageCampaignFunding, ref)

	c, err := j.Contribution(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, c.Equal(amt(200)), c.String())

	_, _ = j.Record(ctx, custody, "alice", amt(200), model.MessageCampaignRefund, ref)

	refunded, err := j.Refunded(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, refunded.Equal(amt(200)))

	out, err := j.Outstanding(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, out.IsZero())

	out, err = j.Outstanding(ctx, 1, "bob")
	require.NoError(t, err)
	assert.True(t, out.Equal(amt(50)))

	other, err := j.Contribution(ctx, 2, "alice")
	require.NoError(t, err)
	assert.True(t, other.Equal(amt(7)))
}

func TestPaidOut(t *testing.T) {
	ctx := context.Background()
	j, _ := newJournal(t, store.NewMemoryStore(), nil)

	paid, err := j.PaidOut(ctx, 5)
	require.NoError(t, err)
	assert.True(t, paid.IsZero())

	_, _ = j.Record(ctx, custody, "creator", amt(300), model.MessageCampaignPayout, model.RefCampaign(5))
	paid, err = j.PaidOut(ctx, 5)
	require.NoError(t, err)
	assert.True(t, paid.Equal(amt(300)))
}

func TestIndexCatchesUpWithOtherWriters(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	reader, _ := newJournal(t, s, nil)
	writer, _ := newJournal(t, s, nil)
	ref := model.RefCampaign(4)

	_, _ = writer.Record(ctx, "a", custody, amt(10), model.MessageCampaignFunding, ref)
	c, err := reader.Contribution(ctx, 4, "a")
	require.NoError(t, err)
	assert.True(t, c.Equal(amt(10)))

	_, _ = writer.Record(ctx, "a", custody, amt(5), model.MessageCampaignFunding, ref)
	c, err = reader.Contribution(ctx, 4, "a")
	require.NoError(t, err)
	assert.True(t, c.Equal(amt(15)))

	require.NoError(t, reader.Rebuild(ctx))
	c, err = reader.Contribution(ctx, 4, "a")
	require.NoError(t, err)
	assert.True(t, c.Equal(amt(15)))
}

func TestRecord_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	j, _ := newJournal(t, store.NewMemoryStore(), pub)

	tx, err := j.Record(ctx, "a", "b", amt(42), "pay", model.RefPayment(3))
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, mq.RoutingKeyTransactionRecorded, pub.keys[0])
	assert.Equal(t, tx.ID, pub.events[0].TransactionID)
	assert.Equal(t, "42", pub.events[0].Amount)
	assert.Equal(t, "payment:3", pub.events[0].Ref)
}

func TestRecord_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	j, _ := newJournal(t, store.NewMemoryStore(), pub)

	tx, err := j.Record(ctx, "a", "b", amt(1), "pay", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
}

func TestCampaignIDFromRef(t *testing.T) {
	id, ok := campaignIDFromRef("campaign:12")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok = campaignIDFromRef("job:12")
	assert.False(t, ok)
	_, ok = campaignIDFromRef("campaign:x")
	assert.False(t, ok)
}
