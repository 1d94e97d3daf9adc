package dashboard

import (
	"superdash/internal/ui"
)

// Component IDs shared by the page, the callbacks and the browser script.
const (
	IDCategoryDropdown  = "category-dropdown"
	IDRegionDropdown    = "region-dropdown"
	IDOutputContainer   = "output-container"
	IDScrollContainer   = "scroll-container"
	IDScrollTarget      = "scroll-target"
	IDDistributionGraph = "sales-distribution"
	IDDownloadButton    = "download-button"
	IDDownloadData      = "download-data"

	// ChartSalesDistribution names the dynamic chart image endpoint.
	ChartSalesDistribution = "sales-distribution"

	PageTitle = "Global Superstore Dashboard"
)

const (
	colorBackground = "#2E2E2E"
	colorText       = "#FFFFFF"
	graphHeight     = "400px"
)

var dropdownStyle = map[string]string{
	"width":           "60%",
	"padding":         "5px",
	"backgroundColor": "#F0F0F0",
	"color":           "#000000",
	"border":          "1px solid #CCCCCC",
	"fontSize":        "18px",
	"margin":          "auto",
	"borderRadius":    "5px",
	"boxShadow":       "0px 4px 8px rgba(0, 0, 0, 0.2)",
}

// ChartImagePath is the PNG endpoint of a chart ID.
func ChartImagePath(id string) string {
	return "/charts/" + id + ".png"
}

// Layout builds the full page tree. Dropdowns start on the default
// selection; the scroll container is filled by the filter callback.
func (s *State) Layout() ui.Node {
	def := s.DefaultSelection()

	graphs := make([]ui.Node, 0, len(staticCharts))
	for i, sc := range staticCharts {
		graphs = append(graphs, ui.Graph(sc.id, s.charts[i], ChartImagePath(sc.id), map[string]string{"height": graphHeight}))
	}

	return ui.Div("", map[string]string{"backgroundColor": colorBackground},
		ui.Heading(1, PageTitle, map[string]string{"textAlign": "center", "color": colorText}),
		ui.Div("", map[string]string{"padding": "20px", "textAlign": "center"},
			ui.Dropdown(IDCategoryDropdown, s.categories, def.Category, false, dropdownStyle),
			ui.Dropdown(IDRegionDropdown, s.regions, def.Region, false, dropdownStyle),
		),
		ui.Div("", map[string]string{
			"display":             "grid",
			"gridTemplateColumns": "repeat(3, 1fr)",
			"gap":                 "20px",
			"padding":             "20px",
		}, graphs...),
		ui.Div(IDOutputContainer, map[string]string{"padding": "20px"}),
		ui.Div(IDScrollContainer, map[string]string{"marginTop": "50px"}),
		ui.Div("", map[string]string{"textAlign": "center", "padding": "20px"},
			ui.Node{Kind: ui.KindButton, ID: IDDownloadButton, Text: "Download Data"},
			ui.Node{Kind: ui.KindDownload, ID: IDDownloadData},
		),
	)
}
