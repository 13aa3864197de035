// Package prompt computes the effective prompt text for a run from an
// ordered list of optional sources.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source pairs inline prompt text with a file reference at one priority
// level. Inline text strictly dominates the file reference.
type Source struct {
	Inline string
	File   string
}

// IsZero reports whether the source provides nothing at its level.
func (s Source) IsZero() bool {
	return s.Inline == "" && s.File == ""
}

// Resolve folds the sources in priority order: the first source providing
// a value wins, checking inline text before its file reference. File
// references are read relative to workDir unless absolute. A missing file
// is an error naming the exact path attempted. No source yielding a value
// is not an error; some agents run purely off their system prompt.
func Resolve(workDir string, sources ...Source) (text string, ok bool, err error) {
	for _, src := range sources {
		if src.Inline != "" {
			return src.Inline, true, nil
		}
		if src.File != "" {
			text, err := loadFile(workDir, src.File)
			if err != nil {
				return "", false, err
			}
			return text, true, nil
		}
	}
	return "", false, nil
}

func loadFile(workDir, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt file not found: %s", path)
		}
		return "", fmt.Errorf("reading prompt file %s: %w", path, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// LoadFromStdin reads prompt content from piped stdin.
func LoadFromStdin() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	var builder strings.Builder
	for {
		line, err := reader.ReadString('\n')
		builder.WriteString(line)
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
	}
	content := strings.TrimSpace(builder.String())
	if content == "" {
		return "", fmt.Errorf("stdin is empty")
	}
	return content, nil
}

// IsStdinPiped returns true if stdin has piped input (not a terminal).
func IsStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
