// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings in ~/.trading-nlp/config.toml
//   - PromptStore: editable prompt templates in ~/.trading-nlp/prompts
package file
