package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metabrainz/picard-plugin-tools/internal/core/metadata"
)

// errWizardAborted is returned when the user cancels manifest entry
var errWizardAborted = errors.New("manifest entry aborted")

var (
	wizardPromptStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))
	wizardErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
	wizardHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// wizardModel holds the state for the manifest field entry wizard. One
// text input is presented per field, in field declaration order; invalid
// input shows the validation error and re-prompts.
type wizardModel struct {
	fields  []metadata.Field
	values  map[string]interface{}
	index   int
	input   textinput.Model
	errMsg  string
	aborted bool
	done    bool
}

// newWizardModel creates a wizard model over the given fields
func newWizardModel(fields []metadata.Field) wizardModel {
	input := textinput.New()
	input.Focus()
	input.CharLimit = 256
	input.Width = 60

	return wizardModel{
		fields: fields,
		values: make(map[string]interface{}),
		input:  input,
	}
}

// Init implements the Bubble Tea init method
func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements the Bubble Tea update method
func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit

		case "enter":
			field := m.fields[m.index]
			value, err := metadata.ValidateField(field, strings.TrimSpace(m.input.Value()))
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}

			m.values[field.Key] = value
			m.errMsg = ""
			m.input.SetValue("")
			m.index++
			if m.index >= len(m.fields) {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements the Bubble Tea view method
func (m wizardModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	field := m.fields[m.index]

	var b strings.Builder
	b.WriteString(wizardPromptStyle.Render(fmt.Sprintf("Please input %s", field.Prompt)))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(wizardErrorStyle.Render("✗ " + m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(wizardHintStyle.Render(fmt.Sprintf("field %d of %d · enter to confirm · esc to abort",
		m.index+1, len(m.fields))))
	return b.String()
}

// runWizard prompts for each field in turn and returns the collected
// values keyed by manifest document key. Aborting returns an error and
// discards all input.
func runWizard(fields []metadata.Field) (map[string]interface{}, error) {
	if len(fields) == 0 {
		return map[string]interface{}{}, nil
	}

	program := tea.NewProgram(newWizardModel(fields))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	m, ok := final.(wizardModel)
	if !ok || m.aborted {
		return nil, errWizardAborted
	}
	return m.values, nil
}
