package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	argon2bridge "github.com/wippyai/argon2-bridge"
	"github.com/wippyai/argon2-bridge/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type field struct {
	name   string
	hint   string
	secret bool
}

type operation struct {
	name   string
	fields []field
}

var operations = []operation{
	{name: "hash", fields: []field{
		{name: "password", hint: "utf-8", secret: true},
		{name: "salt", hint: "≥ 8 bytes"},
		{name: "secret", hint: "optional", secret: true},
		{name: "variant", hint: "argon2i|argon2d|argon2id"},
	}},
	{name: "verify", fields: []field{
		{name: "password", hint: "utf-8", secret: true},
		{name: "hash", hint: "$argon2…"},
	}},
	{name: "verify-ext", fields: []field{
		{name: "password", hint: "utf-8", secret: true},
		{name: "hash", hint: "$argon2…"},
		{name: "secret", hint: "may be empty", secret: true},
	}},
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	bridge   *argon2bridge.Bridge
	result   string
	lastHash string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
	hash   string
}

func newInteractiveModel(b *argon2bridge.Bridge) *interactiveModel {
	return &interactiveModel{bridge: b, state: stateSelectOp}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(operations)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInputs()
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.call(m.values())

			case stateShowResult:
				m.reset()
			}

		case "tab", "shift+tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				step := 1
				if msg.String() == "shift+tab" {
					step = len(m.inputs) - 1
				}
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + step) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state != stateSelectOp {
				m.reset()
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		if msg.hash != "" {
			m.lastHash = msg.hash
		}
		m.clearInputs()
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.clearInputs()
	m.state = stateSelectOp
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) clearInputs() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.inputs = nil
}

func (m *interactiveModel) prepareInputs() {
	op := operations[m.selected]
	m.inputs = make([]textinput.Model, len(op.fields))
	for i, f := range op.fields {
		ti := textinput.New()
		ti.Placeholder = f.hint
		ti.Prompt = f.name + ": "
		ti.Width = 60
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
		}
		if f.name == "hash" {
			ti.SetValue(m.lastHash)
		}
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) values() map[string]string {
	op := operations[m.selected]
	vals := make(map[string]string, len(m.inputs))
	for i, input := range m.inputs {
		vals[op.fields[i].name] = input.Value()
	}
	return vals
}

// call captures the field values so the command does not read the model
// from another goroutine.
func (m *interactiveModel) call(vals map[string]string) tea.Cmd {
	op := operations[m.selected].name
	b := m.bridge
	return func() tea.Msg {
		ctx := context.Background()
		switch op {
		case "hash":
			opts := schema.HashOptions{
				Salt:    schema.Bytes(vals["salt"]),
				Secret:  optionalBytes(vals["secret"]),
				Variant: schema.Variant(vals["variant"]),
			}
			encoded, err := b.Hash(ctx, schema.HashParams{Password: vals["password"], Options: opts})
			return callResultMsg{result: encoded, hash: encoded, err: err}

		case "verify":
			ok, err := b.Verify(ctx, schema.VerifyParams{Password: vals["password"], Hash: vals["hash"]})
			return callResultMsg{result: fmt.Sprint(ok), err: err}

		default:
			ok, err := b.VerifyExt(ctx, schema.VerifyParamsExt{
				VerifyParams: schema.VerifyParams{Password: vals["password"], Hash: vals["hash"]},
				Secret:       schema.Bytes(vals["secret"]),
			})
			return callResultMsg{result: fmt.Sprint(ok), err: err}
		}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Argon2 Bridge"))
	b.WriteString(" ")
	b.WriteString(m.bridge.Transport().Name())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range operations {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + op.name))
			} else {
				b.WriteString("  " + opStyle.Render(op.name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInputArgs:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", opStyle.Render(op.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(hintStyle.Render(op.fields[i].hint))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(op.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(b *argon2bridge.Bridge) error {
	p := tea.NewProgram(newInteractiveModel(b), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
