// Package prompts loads the natural-language node prompts that steer the
// dialogue agent through the intake questionnaire.
//
// Prompts live in a YAML file keyed by conversation-node name. Two reserved
// keys exist: "primary_role_message" (the agent's standing persona, prepended
// to every node's instructions) and "reset_with_summary" (the prompt used to
// compact prior dialogue when a node requests a context reset). Missing keys
// are a configuration error surfaced at load time, never mid-call.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reserved prompt keys.
const (
	KeyPrimaryRole      = "primary_role_message"
	KeyResetWithSummary = "reset_with_summary"
)

// Library holds the loaded prompt set.
type Library struct {
	prompts map[string]string
}

// Load reads the YAML prompt file and verifies the reserved keys plus every
// key in required are present and non-empty.
func Load(path string, required []string) (*Library, error) {
	slog.Debug("prompts.Load: loading prompt library", "path", path, "requiredCount", len(required))

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	all := make(map[string]string)
	if err := yaml.Unmarshal(content, &all); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	lib := &Library{prompts: make(map[string]string, len(all))}
	for key, text := range all {
		lib.prompts[key] = strings.TrimSpace(text)
	}

	missing := lib.missingKeys(append([]string{KeyPrimaryRole, KeyResetWithSummary}, required...))
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt file %s is missing required prompts: %s", path, strings.Join(missing, ", "))
	}

	slog.Info("prompts.Load: prompt library loaded", "path", path, "prompts", len(lib.prompts))
	return lib, nil
}

func (l *Library) missingKeys(keys []string) []string {
	var missing []string
	for _, key := range keys {
		if l.prompts[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Role returns the agent's standing persona message.
func (l *Library) Role() string {
	return l.prompts[KeyPrimaryRole]
}

// SummaryPrompt returns the context-compaction prompt.
func (l *Library) SummaryPrompt() string {
	return l.prompts[KeyResetWithSummary]
}

// Task returns the node prompt for key. Load has already verified every key
// the engine uses, so an empty return indicates a programming error.
func (l *Library) Task(key string) string {
	text, ok := l.prompts[key]
	if !ok {
		slog.Error("prompts.Task: unknown prompt key", "key", key)
	}
	return text
}

// Format substitutes {name} placeholders in a prompt with the given values.
func Format(text string, args map[string]string) string {
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
