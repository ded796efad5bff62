package humantrack

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// PersonLabel is the class name the pipeline detects
const PersonLabel = "person"

var (
	// ErrNoLabels is returned when a labels file contains no labels
	ErrNoLabels = errors.New("labels file is empty")
	// ErrNoPersonLabel is returned when the labels the Model was trained on
	// do not include the person class
	ErrNoPersonLabel = errors.New("labels do not contain \"" + PersonLabel + "\"")
)

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line, the line number being the class ID.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLabels, file)
	}

	return labels, nil
}

// ClassIndex returns the class ID of the given label name
func ClassIndex(labels []string, name string) (int, bool) {
	for i, label := range labels {
		if label == name {
			return i, true
		}
	}

	return -1, false
}

// PersonClass returns the class ID of the person label
func PersonClass(labels []string) (int, error) {

	id, ok := ClassIndex(labels, PersonLabel)

	if !ok {
		return -1, ErrNoPersonLabel
	}

	return id, nil
}
