package agent

import "time"

type Agent struct {
	ID        int       `json:"id" yaml:"id"`
	Role      string    `json:"role" yaml:"role"`
	Goal      string    `json:"goal" yaml:"goal"`
	Backstory string    `json:"backstory" yaml:"backstory"`
	CrewID    int       `json:"crew" yaml:"crew"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Payload struct {
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`
	CrewID    int    `json:"crew"`
}
