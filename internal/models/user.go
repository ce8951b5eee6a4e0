package model

import (
	"time"
)

// PowerKey identifie un pouvoir hors-partie (inventaire méta)
type PowerKey string

const (
	PowerBomb         PowerKey = "bomb"
	PowerLaser        PowerKey = "laser"
	PowerExtraShuffle PowerKey = "extraShuffle"
)

type Powers struct {
	Bomb         int `json:"bomb"`
	Laser        int `json:"laser"`
	ExtraShuffle int `json:"extraShuffle"`
}

type UserProfile struct {
	ID                string    `json:"id,omitempty"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	Avatar            string    `json:"avatar,omitempty"`
	Powers            Powers    `json:"powers"`
	TotalScore        int       `json:"totalScore"`
	Hearts            int       `json:"hearts"`
	LastHeartRefillAt time.Time `json:"lastHeartRefillAt"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty"`
}

// StageProgress suit la progression legacy par niveau (stage1..stage12)
type StageProgress struct {
	StageKey        string     `json:"stage"`
	Completed       bool       `json:"completed"`
	Points          int        `json:"points"`
	UsedPower       *PowerKey  `json:"usedPower,omitempty"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
}

type HeartStatus struct {
	Hearts            int       `json:"hearts"`
	MaxHearts         int       `json:"maxHearts"`
	LastHeartRefillAt time.Time `json:"lastHeartRefillAt"`
	NextRefillSeconds int       `json:"nextRefillSeconds"`
}
