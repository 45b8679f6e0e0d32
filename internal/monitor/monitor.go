// Package monitor renders the negotiation dashboard. It is a read-only
// observer: it snapshots the shared store on a timer and never writes to it.
package monitor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mbourmaud/souk/internal/negotiation"
	"github.com/mbourmaud/souk/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	dealStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Summary aggregates a state snapshot into the dashboard's headline numbers.
type Summary struct {
	Active       int
	Deals        int
	Failed       int
	TotalSpent   int
	TotalAsking  int
	TotalSavings int
	BuyerStatus  negotiation.AgentState
	SellerStatus negotiation.AgentState
}

// Summarize computes the headline numbers for a snapshot.
func Summarize(st *negotiation.State) Summary {
	s := Summary{
		Active:       len(st.Active),
		BuyerStatus:  st.AgentStatus[negotiation.RoleBuyer],
		SellerStatus: st.AgentStatus[negotiation.RoleSeller],
	}
	for _, n := range st.Completed {
		if n.Status == negotiation.StatusAccepted {
			s.Deals++
			s.TotalSpent += n.FinalPrice
			s.TotalAsking += n.AskingPrice
			s.TotalSavings += n.AskingPrice - n.FinalPrice
		} else {
			s.Failed++
		}
	}
	return s
}

// Render draws the live dashboard for a snapshot.
func Render(st *negotiation.State) string {
	var b strings.Builder
	s := Summarize(st)

	b.WriteString(titleStyle.Render("🏺 Souk Monitor"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("AGENTS"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  buyer: %s   seller: %s\n", agentBadge(s.BuyerStatus), agentBadge(s.SellerStatus)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("ACTIVE NEGOTIATIONS"))
	b.WriteString(fmt.Sprintf(" (%d)\n", s.Active))
	if s.Active == 0 {
		b.WriteString(dimStyle.Render("  none\n"))
	}
	for _, n := range sortedActive(st) {
		line := fmt.Sprintf("  %s %s", activeStyle.Render("◐"), n.ItemTitle)
		line += dimStyle.Render(fmt.Sprintf(" round %d, standing offer $%d of $%d asking", n.Round, n.CurrentOffer, n.AskingPrice))
		b.WriteString(line + "\n")
		if e, ok := latestEvent(n); ok {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    %s %s $%d: %s\n", e.From, e.Action, e.Amount, truncate(e.Message, 60))))
		}
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("COMPLETED"))
	b.WriteString(fmt.Sprintf(" (%d)\n", len(st.Completed)))
	for _, n := range st.Completed {
		if n.Status == negotiation.StatusAccepted {
			b.WriteString(fmt.Sprintf("  %s %s sold for $%d", dealStyle.Render("●"), n.ItemTitle, n.FinalPrice))
			b.WriteString(dimStyle.Render(fmt.Sprintf(" (asking $%d, saved $%d)\n", n.AskingPrice, n.AskingPrice-n.FinalPrice)))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", failStyle.Render("✗"), n.ItemTitle, n.Status))
		}
	}

	return b.String()
}

// FinalReport draws the end-of-run summary.
func FinalReport(st *negotiation.State) string {
	var b strings.Builder
	s := Summarize(st)

	b.WriteString(titleStyle.Render("Simulation complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  deals closed:  %s\n", dealStyle.Render(fmt.Sprintf("%d", s.Deals))))
	b.WriteString(fmt.Sprintf("  failed:        %s\n", failStyle.Render(fmt.Sprintf("%d", s.Failed))))
	b.WriteString(fmt.Sprintf("  still open:    %d\n", s.Active))
	if s.Deals > 0 {
		b.WriteString(fmt.Sprintf("  total spent:   $%d of $%d asking\n", s.TotalSpent, s.TotalAsking))
		b.WriteString(fmt.Sprintf("  total savings: %s\n", dealStyle.Render(fmt.Sprintf("$%d", s.TotalSavings))))
	}
	for _, n := range st.Completed {
		if n.Status == negotiation.StatusAccepted {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    %s: $%d in %d rounds\n", n.ItemTitle, n.FinalPrice, n.Round)))
		}
	}
	return b.String()
}

// Monitor periodically redraws the dashboard from store snapshots.
type Monitor struct {
	store    store.Store
	out      io.Writer
	interval time.Duration
}

// New builds a Monitor writing to out on the given cadence.
func New(st store.Store, out io.Writer, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Monitor{store: st, out: out, interval: interval}
}

// Run redraws until the context is cancelled, then prints the final report.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st, err := m.store.Snapshot(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintln(m.out, FinalReport(st))
			return nil
		case <-ticker.C:
			st, err := m.store.Snapshot(ctx)
			if err != nil {
				continue
			}
			fmt.Fprintln(m.out, Render(st))
		}
	}
}

func agentBadge(s negotiation.AgentState) string {
	if s == negotiation.AgentNegotiating {
		return activeStyle.Render("◐ negotiating")
	}
	return dimStyle.Render("○ idle")
}

func sortedActive(st *negotiation.State) []*negotiation.Negotiation {
	out := make([]*negotiation.Negotiation, 0, len(st.Active))
	for _, n := range st.Active {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func latestEvent(n *negotiation.Negotiation) (negotiation.Event, bool) {
	if len(n.History) == 0 {
		return negotiation.Event{}, false
	}
	return n.History[len(n.History)-1], true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
