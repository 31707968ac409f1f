package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mgx/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.Candidate] to implement [list.Item].
type candidateItem struct {
	candidate models.Candidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string {
	return fmt.Sprintf("%s • %s", i.candidate.Title, i.candidate.Artist)
}

func (i candidateItem) Description() string {
	desc := fmt.Sprintf("match %.0f%%", i.candidate.MatchScore*100)
	if i.candidate.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.candidate.Album)
	}
	if i.candidate.Duration > 0 {
		d := time.Duration(i.candidate.Duration) * time.Millisecond
		desc = fmt.Sprintf("%s • %d:%02d", desc, int(d.Minutes()), int(d.Seconds())%60)
	}
	return desc
}

// newCandidateList builds the picker list for a pending decision.
func newCandidateList(pending *models.PendingDecision, width, height int) list.Model {
	items := make([]list.Item, len(pending.Candidates))
	for i, c := range pending.Candidates {
		items[i] = candidateItem{candidate: c}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Matches for '%s' by %s", pending.Song.Title, pending.Song.Artist)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetSize(width-4, height-8)
	return l
}
