package web

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"ays/internal/application/projections"
)

// Bar chart geometry, in SVG user units.
const (
	barWidth      = 640
	barHeight     = 380
	barMarginTop  = 40
	barMarginLeft = 48
	barMarginBot  = 120
	barMarginRt   = 16
)

// Pie chart geometry.
const (
	pieSize   = 320
	pieRadius = 140
	pieLegend = 280
)

// Ends of the continuous colour scale used for DaysPresent.
var (
	scaleLow  = [3]float64{0x0d, 0x08, 0x87}
	scaleHigh = [3]float64{0xf0, 0xf9, 0x21}
)

// pieColors is cycled for slices.
var pieColors = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// scaleColor maps v in [lo, hi] onto the colour scale.
func scaleColor(v, lo, hi int) string {
	t := 1.0
	if hi > lo {
		t = float64(v-lo) / float64(hi-lo)
	}
	var rgb [3]int
	for i := range rgb {
		rgb[i] = int(math.Round(scaleLow[i] + (scaleHigh[i]-scaleLow[i])*t))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

// BarChart renders "Days Present by Member": one bar per email, value label above each bar,
// colour keyed to DaysPresent.
// PRE: rows is non-empty
func BarChart(rows []projections.SummaryRow) template.HTML {
	lo, hi := rows[0].DaysPresent, rows[0].DaysPresent
	for _, r := range rows {
		lo = min(lo, r.DaysPresent)
		hi = max(hi, r.DaysPresent)
	}
	yMax := max(hi, 1)

	plotW := float64(barWidth - barMarginLeft - barMarginRt)
	plotH := float64(barHeight - barMarginTop - barMarginBot)
	slot := plotW / float64(len(rows))
	bw := slot * 0.7
	baseY := float64(barMarginTop) + plotH

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart bar-chart" viewBox="0 0 %d %d" role="img" aria-labelledby="bar-title">`, barWidth, barHeight)
	b.WriteString(`<title id="bar-title">Days Present by Member</title>`)
	fmt.Fprintf(&b, `<text class="chart-title" x="%d" y="22">Days Present by Member</text>`, barMarginLeft)

	for _, tick := range yTicks(yMax) {
		y := baseY - plotH*float64(tick)/float64(yMax)
		fmt.Fprintf(&b, `<line class="grid" x1="%d" y1="%.1f" x2="%d" y2="%.1f"/>`, barMarginLeft, y, barWidth-barMarginRt, y)
		fmt.Fprintf(&b, `<text class="tick" x="%d" y="%.1f" text-anchor="end">%d</text>`, barMarginLeft-6, y+4, tick)
	}

	for i, r := range rows {
		h := plotH * float64(r.DaysPresent) / float64(yMax)
		x := float64(barMarginLeft) + slot*float64(i) + (slot-bw)/2
		cx := x + bw/2
		email := template.HTMLEscapeString(r.Email)
		fmt.Fprintf(&b, `<rect class="bar" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %d</title></rect>`,
			x, baseY-h, bw, h, scaleColor(r.DaysPresent, lo, hi), email, r.DaysPresent)
		fmt.Fprintf(&b, `<text class="value" x="%.1f" y="%.1f" text-anchor="middle">%d</text>`, cx, baseY-h-6, r.DaysPresent)
		fmt.Fprintf(&b, `<text class="label" x="%.1f" y="%.1f" text-anchor="end" transform="rotate(-40 %.1f %.1f)">%s</text>`,
			cx, baseY+14, cx, baseY+14, email)
	}
	fmt.Fprintf(&b, `<line class="axis" x1="%d" y1="%.1f" x2="%d" y2="%.1f"/>`, barMarginLeft, baseY, barWidth-barMarginRt, baseY)
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

// yTicks returns up to six evenly spaced integer ticks from 0 to yMax.
func yTicks(yMax int) []int {
	step := max(1, int(math.Ceil(float64(yMax)/5)))
	var ticks []int
	for v := 0; v <= yMax; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// PieChart renders "Distribution of Attendance": slice size is DaysPresent, labelled by email
// in a legend beside the pie.
func PieChart(rows []projections.SummaryRow) template.HTML {
	total := 0
	for _, r := range rows {
		total += r.DaysPresent
	}

	width := pieSize + pieLegend
	height := max(pieSize+40, 60+len(rows)*22)
	cx, cy := float64(pieSize)/2, float64(pieSize)/2+30

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart pie-chart" viewBox="0 0 %d %d" role="img" aria-labelledby="pie-title">`, width, height)
	b.WriteString(`<title id="pie-title">Distribution of Attendance</title>`)
	b.WriteString(`<text class="chart-title" x="10" y="22">Distribution of Attendance</text>`)

	if total == 0 {
		b.WriteString(`<text class="empty" x="10" y="60">No days recorded yet.</text></svg>`)
		return template.HTML(b.String())
	}

	angle := -math.Pi / 2
	for i, r := range rows {
		if r.DaysPresent == 0 {
			continue
		}
		color := pieColors[i%len(pieColors)]
		email := template.HTMLEscapeString(r.Email)
		share := float64(r.DaysPresent) / float64(total)
		if r.DaysPresent == total {
			fmt.Fprintf(&b, `<circle class="slice" cx="%.1f" cy="%.1f" r="%d" fill="%s"><title>%s: %d</title></circle>`,
				cx, cy, pieRadius, color, email, r.DaysPresent)
			continue
		}
		end := angle + share*2*math.Pi
		large := 0
		if share > 0.5 {
			large = 1
		}
		x1, y1 := cx+pieRadius*math.Cos(angle), cy+pieRadius*math.Sin(angle)
		x2, y2 := cx+pieRadius*math.Cos(end), cy+pieRadius*math.Sin(end)
		fmt.Fprintf(&b, `<path class="slice" d="M%.1f,%.1f L%.2f,%.2f A%d,%d 0 %d 1 %.2f,%.2f Z" fill="%s"><title>%s: %d (%.1f%%)</title></path>`,
			cx, cy, x1, y1, pieRadius, pieRadius, large, x2, y2, color, email, r.DaysPresent, share*100)
		angle = end
	}

	for i, r := range rows {
		y := 50 + i*22
		fmt.Fprintf(&b, `<rect class="swatch" x="%d" y="%d" width="12" height="12" fill="%s"/>`, pieSize+10, y, pieColors[i%len(pieColors)])
		fmt.Fprintf(&b, `<text class="legend" x="%d" y="%d">%s (%d)</text>`, pieSize+28, y+11, template.HTMLEscapeString(r.Email), r.DaysPresent)
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
