package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/config"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	statusHeight = 5 // decision, sweep, sectors, climate, blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Chart series names.
const (
	tempSeries     = "air temp"
	humiditySeries = "humidity"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tempStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	humidityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
)

// consoleFeeds carries telemetry from the MQTT callbacks into the TUI.
// The channels are buffered and lossy: when the TUI falls behind, new
// messages are dropped rather than blocking the MQTT client.
type consoleFeeds struct {
	frames    chan link.Frame
	decisions chan nav.Decision
	samples   chan env.Sample
	logs      chan string
}

func newConsoleFeeds() *consoleFeeds {
	return &consoleFeeds{
		frames:    make(chan link.Frame, 16),
		decisions: make(chan nav.Decision, 16),
		samples:   make(chan env.Sample, 16),
		logs:      make(chan string, 16),
	}
}

func (f *consoleFeeds) report(format string, args ...any) {
	select {
	case f.logs <- fmt.Sprintf(format, args...):
	default:
	}
}

type consoleModel struct {
	feeds *consoleFeeds
	chart *streamlinechart.Model

	width  int // terminal width
	height int // terminal height

	decision     nav.Decision
	haveDecision bool
	frame        link.Frame
	haveFrame    bool
	sample       env.Sample
	haveSample   bool

	logs     []string // last N log messages
	quitting bool
}

func (m *consoleModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the MQTT feeds
type frameMsg link.Frame
type decisionMsg nav.Decision
type sampleMsg env.Sample
type logMsg string

func waitForFrame(f *consoleFeeds) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-f.frames)
	}
}

func waitForDecision(f *consoleFeeds) tea.Cmd {
	return func() tea.Msg {
		return decisionMsg(<-f.decisions)
	}
}

func waitForSample(f *consoleFeeds) tea.Cmd {
	return func() tea.Msg {
		return sampleMsg(<-f.samples)
	}
}

func waitForLog(f *consoleFeeds) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-f.logs)
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *consoleModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - statusHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *consoleModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialConsoleModel(feeds *consoleFeeds) consoleModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 100),
	)
	chart.SetDataSetStyles(tempSeries, runes.ThinLineStyle, tempStyle)
	chart.SetDataSetStyles(humiditySeries, runes.ThinLineStyle, humidityStyle)

	return consoleModel{
		feeds: feeds,
		chart: &chart,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(
		waitForFrame(m.feeds),
		waitForDecision(m.feeds),
		waitForSample(m.feeds),
		waitForLog(m.feeds),
	)
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case frameMsg:
		m.frame = link.Frame(msg)
		m.haveFrame = true
		return m, waitForFrame(m.feeds)

	case decisionMsg:
		m.decision = nav.Decision(msg)
		m.haveDecision = true
		m.addLog(fmt.Sprintf("%s turn=%+.0f stuck=%d (%s)",
			m.decision.Action, m.decision.TurnDeg, m.decision.Stuck, m.decision.Reason))
		return m, waitForDecision(m.feeds)

	case sampleMsg:
		m.sample = env.Sample(msg)
		m.haveSample = true
		m.chart.PushDataSet(tempSeries, m.sample.AirTempC)
		m.chart.PushDataSet(humiditySeries, m.sample.HumidityPct)
		m.chart.DrawAll()
		return m, waitForSample(m.feeds)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.feeds)
	}

	return m, nil
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Console closed.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Heat Scout Console"))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderClimateLegend())
	sb.WriteString("\n")

	// Status
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m consoleModel) renderStatus() string {
	drive := "drive    waiting for telemetry"
	if m.haveDecision {
		drive = fmt.Sprintf("drive    %-10s turn %+5.1f  stuck %d  (%s)",
			m.decision.Action, m.decision.TurnDeg, m.decision.Stuck, m.decision.Reason)
	}

	swp := "sweep    no frames yet"
	sectors := "sectors  no data"
	if m.haveFrame {
		up := (time.Duration(m.frame.TimestampMs) * time.Millisecond).Truncate(time.Second)
		if cm, ok := nearestReading(m.frame.Readings); ok {
			swp = fmt.Sprintf("sweep    %d readings  nearest %.0f cm  up %s",
				len(m.frame.Readings), cm, up)
		} else {
			swp = fmt.Sprintf("sweep    %d readings  up %s", len(m.frame.Readings), up)
		}
		p := profileFromReadings(m.frame.Readings)
		sectors = fmt.Sprintf("sectors  fwd %3.0f  left %3.0f  right %3.0f cm",
			p.Forward(), p.Left(), p.Right())
	}

	climate := "climate  no data"
	if m.haveSample {
		climate = fmt.Sprintf("climate  %.1f C  %.1f %%RH", m.sample.AirTempC, m.sample.HumidityPct)
	}

	return strings.Join([]string{drive, swp, sectors, climate}, "\n")
}

func renderClimateLegend() string {
	items := []string{
		tempStyle.Bold(true).Render("━━") + " " + tempSeries + " (C)",
		humidityStyle.Bold(true).Render("━━") + " " + humiditySeries + " (%)",
	}
	return strings.Join(items, "  ")
}

// nearestReading returns the closest obstacle in a frame, skipping the
// zero readings that mean "no echo".
func nearestReading(readings []link.Reading) (float64, bool) {
	best, ok := 0.0, false
	for _, r := range readings {
		if r.DistanceCm <= 0 {
			continue
		}
		if !ok || r.DistanceCm < best {
			best, ok = r.DistanceCm, true
		}
	}
	return best, ok
}

// RunConsole attaches to the robot's MQTT mirror and renders a live
// dashboard: a streaming climate chart, the latest drive decision and
// sweep frame, and a scrolling decision log.
func RunConsole(cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	feeds := newConsoleFeeds()

	err := subscribe(client, cfg.TopicFrame, func(_ mqtt.Client, msg mqtt.Message) {
		var f link.Frame
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			feeds.report("bad frame payload: %v", err)
			return
		}
		select {
		case feeds.frames <- f:
		default:
		}
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicDecision, func(_ mqtt.Client, msg mqtt.Message) {
		var d nav.Decision
		if err := json.Unmarshal(msg.Payload(), &d); err != nil {
			feeds.report("bad decision payload: %v", err)
			return
		}
		select {
		case feeds.decisions <- d:
		default:
		}
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicEnv, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			feeds.report("bad climate payload: %v", err)
			return
		}
		select {
		case feeds.samples <- s:
		default:
		}
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialConsoleModel(feeds), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

func subscribe(client mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}
