package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persona holds the display copy of the assistant the chat is themed around.
// The assistant's behaviour itself lives server-side behind ASSISTANT_ID.
type Persona struct {
	Name           string `json:"name"`
	WelcomeTitle   string `json:"welcome_title"`
	WelcomeBody    string `json:"welcome_body"`
	Placeholder    string `json:"placeholder"`
	ThinkingText   string `json:"thinking_text"`
	NonTextReply   string `json:"non_text_reply"`
	UserLabel      string `json:"user_label"`
	AssistantLabel string `json:"assistant_label"`
}

// DefaultPersona returns the built-in Jacobo Grinberg persona.
func DefaultPersona() Persona {
	return Persona{
		Name:         "Jacobo Grinberg AI",
		WelcomeTitle: "Bienvenido a Jacobo Grinberg AI",
		WelcomeBody: "Inicia una conversación con tu asistente de Jacobo Grinberg AI. " +
			"Haz preguntas, obtén ayuda o simplemente chatea sobre sus teorías e investigaciones.",
		Placeholder:    "Escribe tu pregunta...",
		ThinkingText:   "Jacobo está pensando",
		NonTextReply:   "[non-text response]",
		UserLabel:      "Tú",
		AssistantLabel: "Jacobo Grinberg AI",
	}
}

// GetPersonaPath returns the path to the optional persona override file
func GetPersonaPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "persona.json"), nil
}

// LoadPersona loads the persona override, filling unset fields from the default.
func LoadPersona() (Persona, error) {
	def := DefaultPersona()

	path, err := GetPersonaPath()
	if err != nil {
		return def, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return def, fmt.Errorf("failed to read persona: %w", err)
	}

	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return def, fmt.Errorf("failed to parse persona: %w", err)
	}

	return p.withDefaults(def), nil
}

func (p Persona) withDefaults(def Persona) Persona {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&p.Name, def.Name)
	fill(&p.WelcomeTitle, def.WelcomeTitle)
	fill(&p.WelcomeBody, def.WelcomeBody)
	fill(&p.Placeholder, def.Placeholder)
	fill(&p.ThinkingText, def.ThinkingText)
	fill(&p.NonTextReply, def.NonTextReply)
	fill(&p.UserLabel, def.UserLabel)
	fill(&p.AssistantLabel, def.AssistantLabel)
	return p
}
