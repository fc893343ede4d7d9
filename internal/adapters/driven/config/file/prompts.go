package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Missing files fall back to embedded defaults, and files are only
// written on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are an expert options trader. Based on the retrieved transcripts below, answer the user's query.
Ground the answer in the excerpts and say so when they do not cover the question.`,

	driven.PromptAnswerUser: `--- Retrieved Data ---
%s

--- User Query ---
%s`,

	driven.PromptCompress: `You are an expert content editor. Remove irrelevant fluff, filler words, disclaimers, or sponsor messages, and keep the trading context. Make the text concise:

%s`,
}

// placeholders is the number of %s verbs each template must keep.
var placeholders = map[string]int{
	driven.PromptAnswerSystem: 0,
	driven.PromptAnswerUser:   2,
	driven.PromptCompress:     1,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.trading-nlp/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. A file whose
// placeholders do not match the default is ignored with a warning.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if want, ok := placeholders[name]; ok {
		if got := strings.Count(prompt, "%s"); got != want {
			logger.Warn("prompt %s has %d %%s placeholders, want %d; using default", name, got, want)
			prompt = defaultPrompts[name]
		}
	}

	// Keep the first cached value if another goroutine got there first.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and writes defaults that are missing.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Prompts

Edit these files to change how answers are written. Changes apply on the
next command, or after restarting ` + "`mcp serve`" + `.

- ` + "`answer_system.txt`" + ` - persona for answers; no placeholders
- ` + "`answer_user.txt`" + ` - two ` + "`%s`" + `: the numbered excerpts, then the question
- ` + "`compress.txt`" + ` - one ` + "`%s`" + `: the chunk to condense (ingest with compression on)

A file with the wrong number of placeholders is ignored and the default is used.
`
	return os.WriteFile(path, []byte(content), 0600)
}
