package mapview

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/campus-data/parkmap/internal/occupancy"
)

// dashboardHTML is the shell page: title banner, legend, the capacity
// overlay table (meter dataset only, which carries the unambiguous
// capacity semantic) and iframes to the two charts.
// %[1]s = capacity table rows.
const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Campus Parking Map</title>
<style>
  body { margin: 0; font-family: system-ui, sans-serif; background: #fafafa; }
  .banner { position: fixed; top: 10px; left: 50%%; transform: translateX(-50%%);
            z-index: 9999; background: rgba(0,0,0,0.75); color: white;
            padding: 8px 16px; border-radius: 8px; font-size: 16px; text-align: center; }
  .banner small { font-size: 12px; }
  .legend { position: fixed; bottom: 20px; left: 20px; z-index: 9999;
            background: white; padding: 10px 12px; border: 1px solid #ccc;
            border-radius: 6px; font-size: 12px; }
  .legend i { width: 10px; height: 10px; display: inline-block; }
  .capacity { position: fixed; top: 80px; right: 20px; z-index: 9999;
              background: white; padding: 8px 10px; border: 1px solid #ccc;
              border-radius: 6px; font-size: 11px; max-height: 260px; overflow-y: auto; }
  .capacity td, .capacity th { padding: 2px 4px; }
  .capacity th { border-bottom: 1px solid #ddd; }
  iframe { border: none; width: 100%%; height: 940px; }
</style>
</head>
<body>
<div class="banner">
  <b>Campus Parking Map</b><br>
  <small>Green = Available | Red = Occupied</small>
</div>
<div class="legend">
  <b>Legend</b><br>
  <i style="background: #2e7d32;"></i> Available<br>
  <i style="background: #c62828;"></i> Occupied
</div>
<div class="capacity">
  <b>Structure Capacity (meter dataset)</b>
  <table style="border-collapse: collapse; margin-top: 6px;">
    <tr><th>Struct</th><th>Total</th><th>Occ</th><th>Vac</th><th>%% Full</th></tr>
    %[1]s
  </table>
</div>
<iframe src="map"></iframe>
<iframe src="capacity" style="height: 560px;"></iframe>
</body>
</html>
`

// capacityTableRows renders the overlay table body. Site names come from
// configuration or source data, so they are escaped before interpolation.
func capacityTableRows(summaries []occupancy.SiteSummary) string {
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%.1f%%</td></tr>\n",
			html.EscapeString(s.Site), s.Total, s.Occupied, s.Vacant, s.PctFull)
	}
	return b.String()
}

// RenderDashboard writes the dashboard shell with the capacity overlay
// filled in from the given (meter) summary.
func RenderDashboard(w io.Writer, summaries []occupancy.SiteSummary) error {
	_, err := fmt.Fprintf(w, dashboardHTML, capacityTableRows(summaries))
	return err
}
