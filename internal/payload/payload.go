// Package payload loads the text files passed verbatim into the stack.
package payload

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tiernet "github.com/lex00/wetwire-tiernet-go"
)

// Descriptions used in missing-file errors.
const (
	AgentConfigDescription = "CloudWatch Unified Agent configuration"
	UserDataDescription    = "User Data script file for EC2 Launch Template"
)

// Payloads are the loaded text files.
type Payloads struct {
	// AgentConfig is the CloudWatch agent JSON, lines joined with "\n".
	AgentConfig string
	// UserData is the bootstrap script as lines, without the shebang.
	UserData []string
	// Files lists the paths that were read.
	Files []string
}

// UserDataScript returns the launch-time script: a bash shebang followed by
// the script lines.
func (p Payloads) UserDataScript() string {
	return strings.Join(append([]string{"#!/bin/bash"}, p.UserData...), "\n")
}

// Load reads the agent configuration and user data script from dir.
func Load(dir, agentConfig, userData string) (*Payloads, error) {
	cfgPath := filepath.Join(dir, agentConfig)
	cfgLines, err := ReadLines(cfgPath, AgentConfigDescription)
	if err != nil {
		return nil, err
	}
	udPath := filepath.Join(dir, userData)
	udLines, err := ReadLines(udPath, UserDataDescription)
	if err != nil {
		return nil, err
	}
	if len(udLines) > 0 && strings.HasPrefix(udLines[0], "#!") {
		if !shellShebang(udLines[0]) {
			return nil, &tiernet.ConfigError{
				Field:  "payload",
				Value:  udPath,
				Reason: fmt.Sprintf("user data must be a bash or sh script, got interpreter %q", strings.TrimSpace(udLines[0][2:])),
			}
		}
		// Replaced by the bash shebang in UserDataScript.
		udLines = udLines[1:]
	}
	return &Payloads{
		AgentConfig: strings.Join(cfgLines, "\n"),
		UserData:    udLines,
		Files:       []string{cfgPath, udPath},
	}, nil
}

// shellShebang reports whether line names bash or sh, directly or via env.
func shellShebang(line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return false
	}
	interp := fields[0]
	if filepath.Base(interp) == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	switch filepath.Base(interp) {
	case "bash", "sh":
		return true
	}
	return false
}

// ReadLines reads path as lines without their line terminators. A missing
// file is a *tiernet.ConfigError naming description and path.
func ReadLines(path, description string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &tiernet.ConfigError{
				Field:  "payload",
				Value:  path,
				Reason: fmt.Sprintf("%s not found", description),
				Err:    err,
			}
		}
		return nil, fmt.Errorf("reading %s: %w", description, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", description, err)
	}
	return lines, nil
}
