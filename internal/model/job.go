package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobApproved   JobStatus = "approved"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobInProgress, JobCompleted, JobApproved:
		return true
	}
	return false
}

type Proposal struct {
	Freelancer string          `json:"freelancer"`
	Price      decimal.Decimal `json:"price"`
}

type Job struct {
	ID                 int64           `json:"id"`
	Employer           string          `json:"employer"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Budget             decimal.Decimal `json:"budget"`
	Token              string          `json:"token"`
	Status             JobStatus       `json:"status"`
	AcceptedFreelancer *string         `json:"accepted_freelancer,omitempty"`
	Proposals          []Proposal      `json:"proposals"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (j *Job) AddProposal(p Proposal) error {
	if j.Status != JobOpen {
		return fmt.Errorf("%w: job %d is %s, proposals need %s", ErrInvalidState, j.ID, j.Status, JobOpen)
	}
	j.Proposals = append(j.Proposals, p)
	return nil
}

func (j *Job) HasProposalFrom(freelancer string) bool {
	for _, p := range j.Proposals {
		if p.Freelancer == freelancer {
			return true
		}
	}
	return false
}

// Accept moves an open job to in progress with freelancer assigned.
func (j *Job) Accept(freelancer string) error {
	if j.Status != JobOpen {
		return fmt.Errorf("%w: job %d is %s, accept needs %s", ErrInvalidState, j.ID, j.Status, JobOpen)
	}
	if !j.HasProposalFrom(freelancer) {
		return fmt.Errorf("%w: no proposal from %s on job %d", ErrNotFound, freelancer, j.ID)
	}
	j.AcceptedFreelancer = &freelancer
	j.Status = JobInProgress
	return nil
}

func (j *Job) IsAcceptedFreelancer(addr string) bool {
	return j.AcceptedFreelancer != nil && *j.AcceptedFreelancer == addr
}

func (j *Job) Complete(caller string) error {
	if j.Status != JobInProgress {
		return fmt.Errorf("%w: job %d is %s, complete needs %s", ErrInvalidState, j.ID, j.Status, JobInProgress)
	}
	if !j.IsAcceptedFreelancer(caller) {
		return fmt.Errorf("%w: %s is not the accepted freelancer of job %d", ErrUnauthorized, caller, j.ID)
	}
	j.Status = JobCompleted
	return nil
}

// CheckApprovable validates an approval without mutating the job; the payout happens between
// the check and MarkApproved.
func (j *Job) CheckApprovable(caller string) (string, error) {
	if j.Employer != caller {
		return "", fmt.Errorf("%w: %s is not the employer of job %d", ErrUnauthorized, caller, j.ID)
	}
	if j.Status != JobCompleted {
		return "", fmt.Errorf("%w: job %d is %s, approve needs %s", ErrInvalidState, j.ID, j.Status, JobCompleted)
	}
	if j.AcceptedFreelancer == nil {
		return "", fmt.Errorf("%w: job %d has no accepted freelancer", ErrInvalidState, j.ID)
	}
	return *j.AcceptedFreelancer, nil
}

func (j *Job) MarkApproved() {
	j.Status = JobApproved
}
