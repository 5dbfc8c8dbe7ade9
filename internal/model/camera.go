package model

import "time"

const (
	CameraDirectionEntry = "entry"
	CameraDirectionExit  = "exit"
)

type Camera struct {
	ID        string    `json:"id"`
	PodID     string    `json:"pod_id"`
	Name      string    `json:"name"`
	Direction string    `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
