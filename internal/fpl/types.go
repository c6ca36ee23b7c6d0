package fpl

import (
	"encoding/json"
	"fmt"
)

// Bootstrap mirrors the parts of bootstrap-static/ the assistant uses.
type Bootstrap struct {
	Events       []Event       `json:"events"`
	Teams        []Team        `json:"teams"`
	Elements     []Element     `json:"elements"`
	ElementTypes []ElementType `json:"element_types"`
}

type Event struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
}

type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Element is a player entry. NowCost is in tenths of a million.
type Element struct {
	ID                int    `json:"id"`
	WebName           string `json:"web_name"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	Team              int    `json:"team"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	EventPoints       int    `json:"event_points"`
	Form              string `json:"form"`
	Status            string `json:"status"`
	News              string `json:"news"`
	SelectedByPercent string `json:"selected_by_percent"`
	GoalsScored       int    `json:"goals_scored"`
	Assists           int    `json:"assists"`
}

func (e Element) FullName() string {
	return e.FirstName + " " + e.SecondName
}

func (e Element) Price() float64 {
	return float64(e.NowCost) / 10
}

// Available reports whether the player can be selected ("a" = available).
func (e Element) Available() bool {
	return e.Status == "a"
}

type ElementType struct {
	ID           int    `json:"id"`
	SingularName string `json:"singular_name"`
}

// Fixture is one scheduled match. Event is nil while the gameweek is
// unassigned.
type Fixture struct {
	Event       *int   `json:"event"`
	TeamH       int    `json:"team_h"`
	TeamA       int    `json:"team_a"`
	Finished    bool   `json:"finished"`
	KickoffTime string `json:"kickoff_time"`
}

// ElementSummary is the per-player feed: one history row per played match.
type ElementSummary struct {
	History []ElementHistory `json:"history"`
}

type ElementHistory struct {
	Round       int `json:"round"`
	TotalPoints int `json:"total_points"`
	Minutes     int `json:"minutes"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
}

func ParseBootstrap(data []byte) (*Bootstrap, error) {
	var b Bootstrap
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse bootstrap payload: %w", err)
	}
	return &b, nil
}

func ParseFixtures(data []byte) ([]Fixture, error) {
	var fs []Fixture
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures payload: %w", err)
	}
	return fs, nil
}

func ParseElementSummary(data []byte) (*ElementSummary, error) {
	var s ElementSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse element summary payload: %w", err)
	}
	return &s, nil
}
