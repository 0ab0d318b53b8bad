package model

import "time"

type Role string

const (
	RoleEmployer   Role = "employer"
	RoleFreelancer Role = "freelancer"
)

func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleFreelancer
}

type User struct {
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	Jobs         []int64   `json:"jobs"`
	RegisteredAt time.Time `json:"registered_at"`
}

// AddJob appends jobID unless the user already references it.
func (u *User) AddJob(jobID int64) {
	for _, id := range u.Jobs {
		if id == jobID {
			return
		}
	}
	u.Jobs = append(u.Jobs, jobID)
}
