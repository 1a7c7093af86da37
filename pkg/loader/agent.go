package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"contrastcurve/internal/models"
)

// ErrInvalidDose is returned when the dose line is missing, malformed or
// not strictly positive.
var ErrInvalidDose = errors.New("invalid contrast dose")

// LoadContrastAgent reads a contrast agent file: the agent name on the first
// line and the dose in mmol/kg on the second.
func LoadContrastAgent(path string) (*models.ContrastAgent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open contrast info file %s: %w", path, err)
	}
	defer file.Close()

	agent, err := DecodeContrastAgent(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return agent, nil
}

// DecodeContrastAgent parses the contrast agent format: the name on the first
// line, then the dose on the next non-blank line.
func DecodeContrastAgent(r io.Reader) (*models.ContrastAgent, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("missing agent name")
	}
	name := strings.TrimSpace(scanner.Text())
	if name == "" {
		return nil, errors.New("empty agent name")
	}

	// blank lines between the name and the dose are skipped
	var fields []string
	for len(fields) == 0 {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("missing dose line: %w", ErrInvalidDose)
		}
		fields = strings.Fields(scanner.Text())
	}
	dose, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("dose %q: %w", fields[0], ErrInvalidDose)
	}
	if !(dose > 0) {
		return nil, fmt.Errorf("dose %g must be positive: %w", dose, ErrInvalidDose)
	}

	return &models.ContrastAgent{Name: name, Dose: dose}, nil
}
