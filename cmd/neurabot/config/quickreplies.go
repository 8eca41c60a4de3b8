package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const quickRepliesFileName = "quickreplies.yaml"

// DefaultQuickReplies are the canned prompts offered when the user has
// not customized the list.
var DefaultQuickReplies = []string{
	"Tell me a joke",
	"What can you do?",
	"Show my tasks",
	"Summarize our conversation",
}

type quickRepliesFile struct {
	Replies []string `yaml:"replies"`
}

// LoadQuickReplies reads the quick-reply prompts from the config
// directory, falling back to the defaults when no file exists.
func LoadQuickReplies() ([]string, error) {
	return LoadQuickRepliesFrom(filepath.Join(Dir(), quickRepliesFileName))
}

// LoadQuickRepliesFrom reads quick replies from an explicit path.
func LoadQuickRepliesFrom(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return append([]string{}, DefaultQuickReplies...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quick replies: %w", err)
	}

	var f quickRepliesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse quick replies: %w", err)
	}
	if len(f.Replies) == 0 {
		return append([]string{}, DefaultQuickReplies...), nil
	}
	return f.Replies, nil
}
