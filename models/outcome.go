package models

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusProblem Status = "problem"
)

// RunContext carries host and timing metadata for a single run.
type RunContext struct {
	Host     string
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Outcome aggregates everything a run learned: whether anything was
// installed, whether the host wants a reboot, the three package lists, and
// the problems collected along the way. Built once per run and handed to
// the report formatter.
type Outcome struct {
	Updated        bool
	RebootRequired bool
	Status         Status

	// UpdatedPackages were installed during this run. Pending is the list
	// the simulation reported before the run; NotUpdated is Pending minus
	// UpdatedPackages, in Pending's order.
	UpdatedPackages []string
	Pending         []string
	NotUpdated      []string

	Problems []string

	Run RunContext
}
