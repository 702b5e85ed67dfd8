// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"fmt"
	"time"
)

// TrendPeriod is the length of a trend window.
type TrendPeriod string

const (
	TrendPeriodDay   TrendPeriod = "day"
	TrendPeriodWeek  TrendPeriod = "week"
	TrendPeriodMonth TrendPeriod = "month"
)

// TrendPeriods lists every period in computation order.
var TrendPeriods = []TrendPeriod{TrendPeriodDay, TrendPeriodWeek, TrendPeriodMonth}

// Duration returns the window length of the period.
func (p TrendPeriod) Duration() (time.Duration, error) {
	switch p {
	case TrendPeriodDay:
		return 24 * time.Hour, nil
	case TrendPeriodWeek:
		return 7 * 24 * time.Hour, nil
	case TrendPeriodMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown trend period %q", string(p))
	}
}

// Window returns the [start, end] window of the period ending at now.
func (p TrendPeriod) Window(now time.Time) (time.Time, time.Time, error) {
	d, err := p.Duration()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return now.Add(-d), now, nil
}

// TrendType selects which items a trend ranking covers.
type TrendType string

const (
	TrendTypeOverall     TrendType = "overall"
	TrendTypeGenre       TrendType = "genre"
	TrendTypeNewReleases TrendType = "new_releases"
)

// TrendTypes lists every trend type in computation order.
var TrendTypes = []TrendType{TrendTypeOverall, TrendTypeGenre, TrendTypeNewReleases}

// Valid reports whether t is a known trend type.
func (t TrendType) Valid() bool {
	switch t {
	case TrendTypeOverall, TrendTypeGenre, TrendTypeNewReleases:
		return true
	default:
		return false
	}
}

// TrendEntry is one ranked row of a trend list.
type TrendEntry struct {
	ID        string      `json:"id"`
	ItemID    string      `json:"item_id"`
	TrendType TrendType   `json:"trend_type"`
	Period    TrendPeriod `json:"period"`

	// Genre is set for TrendTypeGenre rows only.
	Genre string `json:"genre,omitempty"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TrendScore float64 `json:"trend_score"`
	Velocity   float64 `json:"velocity"`
	Rank       int     `json:"rank"`

	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`
	Shares    int64 `json:"shares"`

	IsActive      bool       `json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
