package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// Channel limits for list rows.
const (
	listTitleMax       = 24
	listDescriptionMax = 72
)

// partTypeOrder fixes the grouping order in the detail reply.
var partTypeOrder = []string{"oil", "air", "fuel", "cabin"}

var partTypeLabels = map[string]string{
	"oil":   "🛢 Aceite",
	"air":   "💨 Aire",
	"fuel":  "⛽ Combustible",
	"cabin": "❄️ Habitáculo",
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// formatVehicleRow builds the list row description:
// "2015-Pres 2.8L 150HP".
func formatVehicleRow(v entity.Vehicle) string {
	yearTo := "Pres"
	if v.YearTo != nil {
		yearTo = strconv.Itoa(*v.YearTo)
	}
	parts := []string{fmt.Sprintf("%d-%s", v.YearFrom, yearTo)}
	if v.EngineDisp != "" {
		parts = append(parts, v.EngineDisp+"L")
	}
	if v.PowerHP > 0 {
		parts = append(parts, fmt.Sprintf("%dHP", v.PowerHP))
	}
	return strings.Join(parts, " ")
}

// formatVehicleDetail builds the detail reply: headline, engine tech
// line, then the part recommendations grouped by type in fixed order.
func formatVehicleDetail(v entity.Vehicle, parts []entity.VehiclePart) string {
	var b strings.Builder

	title := v.Brand + " " + v.Model
	if v.SeriesSuffix != "" {
		title += " " + v.SeriesSuffix
	}
	b.WriteString("🚗 *" + title + "* (" + formatVehicleRow(v) + ")\n")

	var tech []string
	if v.EngineSeries != "" {
		tech = append(tech, "Serie: "+v.EngineSeries)
	}
	if v.EngineCode != "" {
		tech = append(tech, "Motor: "+v.EngineCode)
	}
	if len(tech) > 0 {
		b.WriteString("🔧 " + strings.Join(tech, " | ") + "\n")
	}
	b.WriteString("\n")

	grouped := make(map[string][]string)
	var otherOrder []string
	for _, vp := range parts {
		ptype := strings.ToLower(vp.Part.Type)
		entry := vp.Part.Brand + " " + vp.Part.Code
		if _, known := partTypeLabels[ptype]; !known {
			if _, seen := grouped[ptype]; !seen {
				otherOrder = append(otherOrder, ptype)
			}
		}
		grouped[ptype] = append(grouped[ptype], entry)
	}

	if len(grouped) == 0 {
		b.WriteString("⚠️ Aún no tenemos filtros cargados para este auto.\n")
		return b.String()
	}

	for _, ptype := range partTypeOrder {
		if entries, ok := grouped[ptype]; ok {
			b.WriteString(partTypeLabels[ptype] + ": " + strings.Join(entries, ", ") + "\n")
		}
	}
	for _, ptype := range otherOrder {
		b.WriteString("🔩 " + capitalize(ptype) + ": " + strings.Join(grouped[ptype], ", ") + "\n")
	}
	return b.String()
}

// formatLeadAlert is the urgent mirror entry for a completed survey.
func formatLeadAlert(lead entity.Lead) string {
	switch lead.Kind {
	case entity.KindMechanic:
		return fmt.Sprintf("🔧 Lead mecánico: taller %q, prioriza %q", lead.Mechanic.ShopName, lead.Mechanic.Priority)
	case entity.KindSeller:
		return fmt.Sprintf("🏪 Lead vendedor: %q en %q, logística: %q", lead.Seller.Name, lead.Seller.Location, lead.Seller.Logistics)
	case entity.KindBuyer:
		return fmt.Sprintf("🛒 Lead comprador: zona %q, urgencia: %q", lead.Buyer.Location, lead.Buyer.Urgency)
	}
	return "📇 Lead: " + string(lead.Kind)
}
