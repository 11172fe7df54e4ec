package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carsales/internal/assets"
	"carsales/internal/domain"
	"carsales/internal/service"
)

const (
	title         = "Mr.Isuzu - Sales Assistant"
	subtitle      = "Tanyakan tentang spesifikasi, keunggulan, atau perbandingan mobil ISUZU yang tersedia."
	busyText      = "Mr.Isuzu sedang mencari jawaban..."
	emptyQuestion = "Silakan masukkan pertanyaan terlebih dahulu."
	noMatch       = "Pertanyaan Anda belum cocok dengan data teknis yang tersedia."
	detailHeader  = "Detail Mobil yang Ditemukan"
	answerHeader  = "Jawaban Mr.Isuzu"
	helpText      = "enter: tanya • tab/shift+tab: pilih mobil • ctrl+s: unduh brosur • pgup/pgdown: gulir • ctrl+c: keluar"
)

// Asker is the TUI-facing subset of the assistant.
type Asker interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// availability records which assets of a matched car exist.
type availability struct {
	image    bool
	brochure bool
}

type answerMsg struct {
	answer domain.Answer
	avail  []availability
	err    error
}

type savedMsg struct {
	path string
	err  error
}

// Model is the Bubble Tea model for the interactive assistant.
type Model struct {
	ctx         context.Context
	assistant   Asker
	assets      domain.AssetStore
	downloadDir string

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	answer *domain.Answer
	avail  []availability
	cursor int
	busy   bool
	status string
	ready  bool
}

// New creates a new TUI model. store may be nil, in which case every image
// and brochure is reported as unavailable.
func New(ctx context.Context, assistant Asker, store domain.AssetStore, downloadDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Pertanyaan Anda tentang mobil"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		ctx:         ctx,
		assistant:   assistant,
		assets:      store,
		downloadDir: downloadDir,
		input:       ti,
		spinner:     sp,
		viewport:    vp,
		status:      helpText,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and async result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // title + subtitle, status, spacer
		vh := msg.Height - reserved - rh
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorText(msg.err)
			return m, nil
		}
		m.answer = &msg.answer
		m.avail = msg.avail
		m.cursor = 0
		m.status = helpText
		if msg.answer.Cached {
			m.status = "Jawaban dari cache. " + helpText
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "Gagal mengunduh brosur: " + msg.err.Error()
		} else {
			m.status = "Brosur disimpan ke " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				m.status = emptyQuestion
				return m, nil
			}
			m.busy = true
			m.status = busyText
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "tab":
			if n := m.matchCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
			}
			return m, nil
		case "shift+tab":
			if n := m.matchCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
			}
			return m, nil
		case "ctrl+s":
			return m, m.saveBrochure()
		case "pgdown":
			m.viewport.ViewDown()
			return m, nil
		case "pgup":
			m.viewport.ViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(title)
	sub := subtleStyle.Render(subtitle)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + sub + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) ask(q string) tea.Cmd {
	ctx, assistant, store := m.ctx, m.assistant, m.assets
	return func() tea.Msg {
		ans, err := assistant.Ask(ctx, q)
		if err != nil {
			return answerMsg{err: err}
		}
		avail := make([]availability, len(ans.Matches))
		for i, match := range ans.Matches {
			avail[i] = availability{
				image:    exists(ctx, store, match.Car.ImagePath),
				brochure: exists(ctx, store, match.Car.BrochurePath),
			}
		}
		return answerMsg{answer: ans, avail: avail}
	}
}

func (m Model) saveBrochure() tea.Cmd {
	if m.matchCount() == 0 || m.assets == nil {
		return nil
	}
	car := m.answer.Matches[m.cursor].Car
	if !m.avail[m.cursor].brochure {
		return func() tea.Msg {
			return savedMsg{err: fmt.Errorf("brosur untuk %s belum tersedia", car.Name)}
		}
	}
	ctx, store, dir := m.ctx, m.assets, m.downloadDir
	return func() tea.Msg {
		path, err := assets.SaveTo(ctx, store, car.BrochurePath, dir)
		return savedMsg{path: path, err: err}
	}
}

func (m Model) matchCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Matches)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return subtleStyle.Render("Belum ada pertanyaan.")
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render(answerHeader))
	b.WriteString("\n\n")
	b.WriteString(m.answer.Text)
	b.WriteString("\n\n")

	if len(m.answer.Matches) == 0 {
		b.WriteString(warnStyle.Render(noMatch))
		return b.String()
	}

	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d/%d)", detailHeader, m.cursor+1, len(m.answer.Matches))))
	b.WriteString("\n\n")
	match := m.answer.Matches[m.cursor]
	avail := m.avail[m.cursor]
	fmt.Fprintf(&b, "Nama: %s\n", match.Car.Name)
	if match.Scored {
		fmt.Fprintf(&b, "Skor Kecocokan: %.4f\n", match.Score)
	}
	if avail.image {
		fmt.Fprintf(&b, "Gambar: %s\n", match.Car.ImagePath)
	} else {
		fmt.Fprintf(&b, "Gambar untuk %s tidak tersedia.\n", match.Car.Name)
	}
	if avail.brochure {
		fmt.Fprintf(&b, "Unduh Brosur %s: tekan ctrl+s\n", match.Car.Name)
	} else {
		fmt.Fprintf(&b, "Brosur untuk %s belum tersedia.\n", match.Car.Name)
	}
	return b.String()
}

func exists(ctx context.Context, store domain.AssetStore, path string) bool {
	if store == nil || path == "" {
		return false
	}
	_, err := store.Stat(ctx, path)
	return err == nil
}

func errorText(err error) string {
	if errors.Is(err, service.ErrEmptyQuestion) {
		return emptyQuestion
	}
	return "Error: " + err.Error()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
