package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Bar is one histogram row
type Bar struct {
	Label string
	Value float64
	// Hist is the nested histogram of the bucket, if any
	Hist *aggr.Terms
}

// BarsFromTerms builds one bar per bucket, keeping bucket order
func BarsFromTerms(f catalog.Field, t aggr.Terms) []Bar {
	bars := make([]Bar, len(t.Buckets))
	for i, b := range t.Buckets {
		bars[i] = Bar{
			Label: facet.KeyLabel(f, b.Key),
			Value: float64(b.DocCount),
			Hist:  b.Hist,
		}
	}
	return bars
}

// Histogram is a horizontal bar chart whose value axis is the toggle axis
type Histogram struct {
	*Chart
	Bars    []Bar
	printer *message.Printer
}

func NewHistogram(title string, registry *axis.Registry, mode axis.Mode) (*Histogram, error) {
	c := New(title, registry)
	if _, err := c.AddAxis(axis.ToggleAxisID, mode.Config()); err != nil {
		return nil, err
	}
	return &Histogram{
		Chart:   c,
		printer: message.NewPrinter(language.English),
	}, nil
}

func (h *Histogram) valueAxis() *Axis {
	return h.Axis(axis.ToggleAxisID)
}

// Domain is the internal coordinate span of the value axis
func (h *Histogram) Domain() (lo, hi float64) {
	a := h.valueAxis()
	t := a.Transform()
	lo = t.ToInternal(a.Min())
	maxValue := a.Min()
	for _, b := range h.Bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
	}
	hi = t.ToInternal(maxValue)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// BarLength is the length in cells of a bar for value v on a width cells wide plot
func (h *Histogram) BarLength(v float64, width int) int {
	if width <= 0 {
		return 0
	}
	lo, hi := h.Domain()
	t := h.valueAxis().Transform()
	if !t.AllowNegative() && v <= 0 {
		return 0
	}
	p := t.ToInternal(v)
	n := int(math.Round((p - lo) / (hi - lo) * float64(width)))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

// log10 of exact powers of ten may land just below the integer
const tickEpsilon = 1e-9

// Ticks returns display values for the axis: every integral internal
// position for logarithmic axes, count evenly spaced values for linear ones
func (h *Histogram) Ticks(count int) []float64 {
	a := h.valueAxis()
	t := a.Transform()
	lo, hi := h.Domain()
	var ticks []float64
	if a.Options().Type == axis.TypeLogarithmic {
		for p := math.Ceil(lo - tickEpsilon); p <= math.Floor(hi+tickEpsilon); p++ {
			ticks = append(ticks, t.ToDisplay(p))
		}
		return ticks
	}
	if count < 2 {
		count = 2
	}
	for i := 0; i < count; i++ {
		p := lo + (hi-lo)*float64(i)/float64(count-1)
		ticks = append(ticks, t.ToDisplay(p))
	}
	return ticks
}

// Render draws the histogram, width is the total width in cells
func (h *Histogram) Render(width int) string {
	var out strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("white"))
	out.WriteString(titleStyle.Render(fmt.Sprintf("%s (scale: %s)", h.Title, axis.ModeOf(h.valueAxis().Options().Type))))
	out.WriteString("\n\n")

	if len(h.Bars) == 0 {
		out.WriteString("No buckets")
		return out.String()
	}

	labelWidth := 0
	for _, b := range h.Bars {
		if w := lipgloss.Width(b.Label); w > labelWidth {
			labelWidth = w
		}
	}
	plotWidth := width - labelWidth - 12
	if plotWidth < 10 {
		plotWidth = 10
	}

	for _, b := range h.Bars {
		n := h.BarLength(b.Value, plotWidth)
		bar := lipgloss.NewStyle().Foreground(barColor(float64(n) / float64(plotWidth))).Render(strings.Repeat("█", n))
		out.WriteString(lipgloss.NewStyle().Width(labelWidth).Render(b.Label))
		out.WriteString(" ")
		out.WriteString(bar)
		out.WriteString(strings.Repeat(" ", plotWidth-n))
		out.WriteString(" ")
		out.WriteString(h.printer.Sprintf("%d", int64(b.Value)))
		out.WriteString("\n")
	}

	labels := make([]string, 0)
	for _, tick := range h.Ticks(5) {
		labels = append(labels, h.printer.Sprintf("%d", int64(math.Round(tick))))
	}
	axisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	out.WriteString(strings.Repeat(" ", labelWidth+1))
	out.WriteString(axisStyle.Render(strings.Join(labels, " · ")))
	return out.String()
}

// barColor goes green to yellow to red as the bar grows
func barColor(normalized float64) lipgloss.Color {
	if normalized < 0.5 {
		red := int(255 * normalized * 2)
		return lipgloss.Color(fmt.Sprintf("#%02XFF00", red))
	}
	green := int(255 * (1 - (normalized-0.5)*2))
	return lipgloss.Color(fmt.Sprintf("#FF%02X00", green))
}
