// Package tui drives the subscription wizard and the unsubscribe flow from a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/unsubscribe"
	"github.com/quantonganh/newsletter/wizard"
)

type tab int

const (
	tabSubscribe tab = iota
	tabUnsubscribe
)

type subscribeDoneMsg struct{ err error }

type unsubscribeDoneMsg struct {
	result unsubscribe.Result
	err    error
}

// Model is the bubbletea model holding both tabs.
type Model struct {
	ctx    context.Context
	wizard *wizard.Wizard
	flow   *unsubscribe.Flow

	tab tab

	personal []textinput.Model
	focus    int

	tagCursor   int
	customInput textinput.Model

	topicCursor int

	emailInput textinput.Model
	unsubErr   string
}

const msgEmailRequired = "Please enter your email."

var personalFields = []wizard.Field{wizard.FieldFirstName, wizard.FieldLastName, wizard.FieldEmail}

// New returns a model on the subscribe tab. ctx bounds the submissions.
func New(ctx context.Context, w *wizard.Wizard, f *unsubscribe.Flow) Model {
	m := Model{
		ctx:    ctx,
		wizard: w,
		flow:   f,
	}

	for _, placeholder := range []string{"First name", "Last name", "Email"} {
		in := textinput.New()
		in.Placeholder = placeholder
		m.personal = append(m.personal, in)
	}

	m.customInput = textinput.New()
	m.customInput.Placeholder = "Custom topic"
	m.customInput.CharLimit = wizard.CustomTagMaxLen

	m.emailInput = textinput.New()
	m.emailInput.Placeholder = "Email ID"

	m.focusStep()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.switchTab()
			return m, nil
		}
		if m.tab == tabUnsubscribe {
			return m.updateUnsubscribe(msg)
		}
		return m.updateSubscribe(msg)
	case subscribeDoneMsg:
		return m, nil
	case unsubscribeDoneMsg:
		m.unsubErr = ""
		if errors.Is(msg.err, unsubscribe.ErrEmailRequired) {
			m.unsubErr = msgEmailRequired
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) switchTab() {
	if m.tab == tabSubscribe {
		m.tab = tabUnsubscribe
		m.blurAll()
		m.emailInput.Focus()
		return
	}
	m.tab = tabSubscribe
	m.emailInput.Blur()
	m.focusStep()
}

func (m *Model) blurAll() {
	for i := range m.personal {
		m.personal[i].Blur()
	}
	m.customInput.Blur()
}

// focusStep focuses the text input that owns the keyboard on the current step.
func (m *Model) focusStep() {
	m.blurAll()
	switch m.wizard.Step() {
	case wizard.StepPersonal:
		m.personal[m.focus].Focus()
	case wizard.StepTopics:
		if m.tagCursor == len(wizard.PredefinedTags) {
			m.customInput.Focus()
		}
	}
}

func (m Model) updateSubscribe(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.wizard.Submitted() {
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+n":
		m.advance()
		return m, nil
	case "esc", "ctrl+b":
		m.wizard.Retreat()
		m.focusStep()
		return m, nil
	}

	switch m.wizard.Step() {
	case wizard.StepPersonal:
		return m.updatePersonal(msg)
	case wizard.StepTopics:
		return m.updateTopics(msg)
	default:
		return m.updateArticles(msg)
	}
}

func (m *Model) advance() {
	if m.wizard.Advance() {
		m.focusStep()
	}
}

func (m Model) updatePersonal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.focus > 0 {
			m.focus--
		}
		m.focusStep()
		return m, nil
	case "down":
		if m.focus < len(m.personal)-1 {
			m.focus++
		}
		m.focusStep()
		return m, nil
	case "enter":
		if m.focus < len(m.personal)-1 {
			m.focus++
			m.focusStep()
			return m, nil
		}
		m.advance()
		return m, nil
	}

	var cmd tea.Cmd
	m.personal[m.focus], cmd = m.personal[m.focus].Update(msg)
	m.wizard.UpdateField(personalFields[m.focus], m.personal[m.focus].Value())
	return m, cmd
}

func (m Model) updateTopics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	customRow := len(wizard.PredefinedTags)

	switch msg.String() {
	case "up":
		if m.tagCursor > 0 {
			m.tagCursor--
		}
		m.focusStep()
		return m, nil
	case "down":
		if m.tagCursor < customRow {
			m.tagCursor++
		}
		m.focusStep()
		return m, nil
	}

	if m.tagCursor < customRow {
		switch msg.String() {
		case " ", "enter":
			m.wizard.ToggleTag(wizard.PredefinedTags[m.tagCursor])
		}
		return m, nil
	}

	switch msg.String() {
	case "enter":
		m.wizard.AddCustomTag()
		m.customInput.SetValue(m.wizard.Draft().CustomTagInput)
		return m, nil
	case "backspace":
		if m.customInput.Value() == "" {
			if custom := m.wizard.Draft().CustomTags(); len(custom) > 0 {
				m.wizard.ToggleTag(custom[len(custom)-1])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.customInput, cmd = m.customInput.Update(msg)
	m.wizard.UpdateField(wizard.FieldCustomTagInput, m.customInput.Value())
	return m, cmd
}

func (m Model) updateArticles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.wizard.Draft()

	switch msg.String() {
	case "m":
		if d.ArticleMode == newsletter.ModeSimple {
			m.wizard.SetArticleMode(newsletter.ModePerTopic)
		} else {
			m.wizard.SetArticleMode(newsletter.ModeSimple)
		}
		m.topicCursor = 0
		return m, nil
	case "enter", "ctrl+s":
		return m, m.submit()
	}

	if d.ArticleMode == newsletter.ModeSimple {
		switch msg.String() {
		case "left":
			m.wizard.SetSimpleCount(step(wizard.SimpleCounts, d.SimpleCount, -1))
		case "right":
			m.wizard.SetSimpleCount(step(wizard.SimpleCounts, d.SimpleCount, 1))
		}
		return m, nil
	}

	if len(d.Tags) == 0 {
		return m, nil
	}
	if m.topicCursor >= len(d.Tags) {
		m.topicCursor = len(d.Tags) - 1
	}
	tag := d.Tags[m.topicCursor]

	switch msg.String() {
	case "up":
		if m.topicCursor > 0 {
			m.topicCursor--
		}
	case "down":
		if m.topicCursor < len(d.Tags)-1 {
			m.topicCursor++
		}
	case "left":
		m.wizard.SetTopicCount(tag, step(wizard.TopicCountOptions, d.TopicDistribution[tag], -1))
	case "right":
		m.wizard.SetTopicCount(tag, step(wizard.TopicCountOptions, d.TopicDistribution[tag], 1))
	}
	return m, nil
}

func (m Model) submit() tea.Cmd {
	if m.wizard.Loading() {
		return nil
	}
	ctx, w := m.ctx, m.wizard
	return func() tea.Msg {
		return subscribeDoneMsg{err: w.Submit(ctx)}
	}
}

func (m Model) updateUnsubscribe(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.flow.Loading() {
			return m, nil
		}
		ctx, f, email := m.ctx, m.flow, m.emailInput.Value()
		return m, func() tea.Msg {
			result, err := f.Submit(ctx, email)
			return unsubscribeDoneMsg{result: result, err: err}
		}
	}

	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	return m, cmd
}

// step moves from current to the neighbouring option, staying in range.
func step(options []int, current, delta int) int {
	for i, v := range options {
		if v == current {
			j := i + delta
			if j < 0 || j >= len(options) {
				return current
			}
			return options[j]
		}
	}
	return options[0]
}

func (m Model) View() string {
	var b strings.Builder

	sub, unsub := inactiveTab, activeTab
	if m.tab == tabSubscribe {
		sub, unsub = activeTab, inactiveTab
	}
	b.WriteString(sub.Render("Subscribe") + "   " + unsub.Render("Unsubscribe") + "\n\n")

	if m.tab == tabUnsubscribe {
		b.WriteString(m.viewUnsubscribe())
	} else {
		b.WriteString(m.viewSubscribe())
	}

	b.WriteString("\n" + helpStyle.Render("tab: switch  ctrl+c: quit") + "\n")
	return b.String()
}

func (m Model) viewSubscribe() string {
	if m.wizard.Submitted() {
		return successStyle.Render("You're subscribed!") + "\n" + wizard.MsgSubscribed + "\n"
	}

	var b strings.Builder
	current := m.wizard.Step()
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(fmt.Sprintf("Step %d of 3", current)))

	switch current {
	case wizard.StepPersonal:
		for _, in := range m.personal {
			b.WriteString(in.View() + "\n")
		}
		b.WriteString(helpStyle.Render("enter: next field  ctrl+n: continue") + "\n")
	case wizard.StepTopics:
		b.WriteString(m.viewTopics())
	default:
		b.WriteString(m.viewArticles())
	}

	if msg := m.wizard.StepError(current); msg != "" {
		b.WriteString("\n" + errorStyle.Render(msg) + "\n")
	}
	if msg := m.wizard.SubmitError(); msg != "" {
		b.WriteString("\n" + errorStyle.Render(msg) + "\n")
	}
	if m.wizard.Loading() {
		b.WriteString("\nSubscribing…\n")
	}
	return b.String()
}

func (m Model) viewTopics() string {
	var b strings.Builder
	d := m.wizard.Draft()
	fmt.Fprintf(&b, "Selected %d/%d\n", len(d.Tags), wizard.MaxTags)

	for i, tag := range wizard.PredefinedTags {
		cursor := "  "
		if i == m.tagCursor {
			cursor = "> "
		}
		box := "[ ]"
		line := tag
		if d.HasTag(tag) {
			box = "[x]"
			line = selectedStyle.Render(tag)
		} else if !d.CanAddTag() {
			line = helpStyle.Render(tag)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, line)
	}

	cursor := "  "
	if m.tagCursor == len(wizard.PredefinedTags) {
		cursor = "> "
	}
	b.WriteString(cursor + m.customInput.View() + "\n")
	if custom := d.CustomTags(); len(custom) > 0 {
		b.WriteString("  custom: " + selectedStyle.Render(strings.Join(custom, ", ")) + "\n")
	}
	b.WriteString(helpStyle.Render("space: toggle  enter: add custom  ctrl+n: continue  esc: back") + "\n")
	return b.String()
}

func (m Model) viewArticles() string {
	var b strings.Builder
	d := m.wizard.Draft()

	mode := "Simple"
	if d.ArticleMode == newsletter.ModePerTopic {
		mode = "Per topic"
	}
	fmt.Fprintf(&b, "Mode: %s\n", selectedStyle.Render(mode))
	if !d.CanUsePerTopic() {
		b.WriteString(helpStyle.Render("Select at least 2 topics to set counts per topic.") + "\n")
	}

	if d.ArticleMode == newsletter.ModeSimple {
		fmt.Fprintf(&b, "Articles per newsletter: < %d >\n", d.SimpleCount)
	} else {
		total := d.TopicTotal()
		hint := "(must be multiple of 5)"
		if d.TopicValid() {
			hint = "(multiple of 5 ✓)"
		}
		fmt.Fprintf(&b, "Total: %d articles %s\n", total, hint)
		for i, tag := range d.Tags {
			cursor := "  "
			if i == m.topicCursor {
				cursor = "> "
			}
			fmt.Fprintf(&b, "%s%-20s < %d >\n", cursor, tag, d.TopicDistribution[tag])
		}
	}
	b.WriteString(helpStyle.Render("m: mode  ←/→: count  enter: subscribe  esc: back") + "\n")
	return b.String()
}

func (m Model) viewUnsubscribe() string {
	var b strings.Builder
	b.WriteString(m.emailInput.View() + "\n")

	if m.flow.Loading() {
		b.WriteString("Unsubscribing…\n")
		return b.String()
	}
	if m.unsubErr != "" {
		b.WriteString(errorStyle.Render(m.unsubErr) + "\n")
		return b.String()
	}
	if result := m.flow.Result(); result != nil {
		style := errorStyle
		if result.Outcome() == unsubscribe.OutcomeUnsubscribed {
			style = successStyle
		}
		b.WriteString(style.Render(result.Text()) + "\n")
	}
	return b.String()
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, w *wizard.Wizard, f *unsubscribe.Flow) error {
	_, err := tea.NewProgram(New(ctx, w, f), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
