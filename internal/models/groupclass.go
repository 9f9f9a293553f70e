package models

import "time"

// GroupClass групповое занятие с ограничением числа участников.
type GroupClass struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	TrainerID    int64     `json:"trainer_id"`
	StartsAt     time.Time `json:"starts_at"`
	MemberLimit  int       `json:"member_limit"`
	MembersCount int       `json:"members_count"`
}

// Full сообщает, заполнено ли занятие.
func (c *GroupClass) Full() bool {
	return c.MembersCount >= c.MemberLimit
}
