package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.NewFromInt(0)))
	assert.NoError(t, ValidateAmount(maxAmount))
	assert.NoError(t, ValidateAmount(minAmount))

	assert.ErrorIs(t, ValidateAmount(maxAmount.Add(decimal.NewFromInt(1))), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateAmount(minAmount.Sub(decimal.NewFromInt(1))), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("1.5")), ErrInvalidArgument)

	assert.NoError(t, ValidatePositiveAmount(decimal.NewFromInt(1)))
	assert.ErrorIs(t, ValidatePositiveAmount(decimal.Zero), ErrInvalidArgument)
	assert.ErrorIs(t, ValidatePositiveAmount(decimal.NewFromInt(-5)), ErrInvalidArgument)
}

func newOpenJob() *Job {
	return &Job{ID: 1, Employer: "emp", Budget: decimal.NewFromInt(100), Status: JobOpen}
}

func TestJob_Lifecycle(t *testing.T) {
	j := newOpenJob()

	require.NoError(t, j.AddProposal(Proposal{Freelancer: "fl", Price: decimal.NewFromInt(90)}))
	require.NoError(t, j.AddProposal(Proposal{Freelancer: "fl", Price: decimal.NewFromInt(90)}))
	assert.Len(t, j.Proposals, 2)

	require.NoError(t, j.Accept("fl"))
	assert.Equal(t, JobInProgress, j.Status)
	require.NotNil(t, j.AcceptedFreelancer)
	assert.Equal(t, "fl", *j.AcceptedFreelancer)

	assert.ErrorIs(t, j.AddProposal(Proposal{Freelancer: "late"}), ErrInvalidState)
	assert.ErrorIs(t, j.Complete("someone"), ErrUnauthorized)
	require.NoError(t, j.Complete("fl"))
	assert.Equal(t, JobCompleted, j.Status)

	_, err := j.CheckApprovable("fl")
	assert.ErrorIs(t, err, ErrUnauthorized)

	payee, err := j.CheckApprovable("emp")
	require.NoError(t, err)
	assert.Equal(t, "fl", payee)
	j.MarkApproved()
	assert.Equal(t, JobApproved, j.Status)

	_, err = j.CheckApprovable("emp")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestJob_AcceptRequiresProposal(t *testing.T) {
	j := newOpenJob()
	err := j.Accept("stranger")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, JobOpen, j.Status)
	assert.Nil(t, j.AcceptedFreelancer)
}

func TestJob_ApproveWithoutFreelancerIsRejected(t *testing.T) {
	j := newOpenJob()
	j.Status = JobCompleted

	_, err := j.CheckApprovable("emp")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, JobCompleted, j.Status)
}

func TestUser_AddJobDedupes(t *testing.T) {
	u := &User{Address: "a", Role: RoleEmployer}
	u.AddJob(1)
	u.AddJob(2)
	u.AddJob(1)
	assert.Equal(t, []int64{1, 2}, u.Jobs)
	assert.True(t, RoleFreelancer.Valid())
	assert.False(t, Role("admin").Valid())
}

func TestCampaign_PledgesAndResolution(t *testing.T) {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{ID: 3, Goal: decimal.NewFromInt(150), Status: CampaignActive, EndTime: end}

	require.NoError(t, c.CheckFundable(end))
	c.AddPledge("a", decimal.NewFromInt(100))
	c.AddPledge("b", decimal.NewFromInt(25))
	c.AddPledge("a", decimal.NewFromInt(25))
	assert.Equal(t, CampaignSuccessful, c.Status)
	assert.True(t, c.Raised.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, []string{"a", "b", "a"}, c.Backers)
	assert.Equal(t, []string{"a", "b"}, c.DistinctBackers())

	assert.ErrorIs(t, c.CheckFundable(end), ErrInvalidState)
}

func TestCampaign_FundingAfterDeadline(t *testing.T) {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{ID: 3, Goal: decimal.NewFromInt(150), Status: CampaignActive, EndTime: end}

	err := c.CheckFundable(end.Add(time.Second))
	assert.True(t, errors.Is(err, ErrDeadlinePassed))
}

func TestCampaign_Resolve(t *testing.T) {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{ID: 1, Goal: decimal.NewFromInt(10), Raised: decimal.NewFromInt(5), Status: CampaignActive, EndTime: end}

	assert.ErrorIs(t, c.Resolve(end), ErrDeadlineNotReached)
	require.NoError(t, c.Resolve(end.Add(time.Nanosecond)))
	assert.Equal(t, CampaignFailed, c.Status)

	s := &Campaign{ID: 2, Goal: decimal.NewFromInt(10), Raised: decimal.NewFromInt(10), Status: CampaignSuccessful, EndTime: end}
	require.NoError(t, s.Resolve(end.Add(-time.Hour)))
	assert.Equal(t, CampaignSuccessful, s.Status)
}

func TestRegularPayment_DueAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &RegularPayment{Interval: time.Hour, NextPayment: start}

	assert.False(t, p.Due(start.Add(-time.Second)))
	assert.True(t, p.Due(start))
	p.Advance()
	assert.Equal(t, start.Add(time.Hour), p.NextPayment)
}

func TestFeedItemsFor(t *testing.T) {
	tx := Transaction{ID: 9, From: "a", To: "b", Amount: decimal.NewFromInt(3), Message: "hi"}
	items := FeedItemsFor(tx)
	require.Len(t, items, 2)
	assert.Equal(t, DirectionOut, items["a"].Direction)
	assert.Equal(t, "b", items["a"].Counterparty)
	assert.Equal(t, DirectionIn, items["b"].Direction)

	self := FeedItemsFor(Transaction{ID: 10, From: "a", To: "a"})
	assert.Len(t, self, 1)
}

func TestRefs(t *testing.T) {
	assert.Equal(t, "campaign:7", RefCampaign(7))
	assert.Equal(t, "job:3", RefJob(3))
	assert.Equal(t, "payment:2", RefPayment(2))
}
