package plot

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/voltlab/battsim/internal/solution"
)

// HTML renders one line chart per variable onto a single page written to w.
func HTML(w io.Writer, sol *solution.Solution, title string, names []string) error {
	if sol == nil || sol.Len() == 0 {
		return fmt.Errorf("plot: empty solution")
	}
	if len(names) == 0 {
		names = []string{"terminal voltage", "current"}
	}

	times := sol.Times
	xAxis := make([]string, len(times))
	for i, t := range times {
		xAxis[i] = fmt.Sprintf("%.1f", t)
	}

	page := components.NewPage()
	page.PageTitle = title

	for _, name := range names {
		data, err := sol.Variable(name)
		if err != nil {
			return err
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme: types.ThemeWesteros,
			}),
			charts.WithTitleOpts(opts.Title{
				Title:    name,
				Subtitle: title,
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Name:        "time [s]",
				SplitNumber: 20,
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale: opts.Bool(true),
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				Start:      0,
				End:        100,
				XAxisIndex: []int{0},
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)

		items := make([]opts.LineData, len(data))
		for i, v := range data {
			items[i] = opts.LineData{Value: v}
		}
		line.SetXAxis(xAxis).AddSeries(name, items,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

		page.AddCharts(line)
	}

	return page.Render(w)
}

// WriteHTML renders the page to a file at path.
func WriteHTML(path string, sol *solution.Solution, title string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return HTML(f, sol, title, names)
}
