package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"collision-sim/internal/models"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "parser")

// Parser handles parsing of telemetry trace files
type Parser struct {
	format string
}

// NewParser creates a new parser with the specified format
func NewParser(format string) *Parser {
	return &Parser{format: format}
}

// ParseFile parses a telemetry trace file
func (p *Parser) ParseFile(filename string) ([]models.TelemetrySample, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads samples from r in the parser's format
func (p *Parser) Parse(r io.Reader) ([]models.TelemetrySample, error) {
	switch strings.ToLower(p.format) {
	case "csv":
		return p.parseCSV(r)
	case "json":
		return p.parseJSON(r)
	case "log":
		return p.parseLog(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

// Column names accepted for each field, lower-cased
var columns = map[string][]string{
	"time":    {"time_sec", "time", "timestamp"},
	"vehicle": {"vehicle_id", "vehicle"},
	"speed":   {"speed_mph", "speed"},
}

// parseCSV parses CSV traces with a header row
func (p *Parser) parseCSV(r io.Reader) ([]models.TelemetrySample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	indices := make(map[string]int)
	for i, h := range header {
		indices[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for field, names := range columns {
		if _, ok := lookupColumn(indices, names); !ok {
			return nil, fmt.Errorf("missing %s column (one of %s)", field, strings.Join(names, ", "))
		}
	}

	var results []models.TelemetrySample
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return results, fmt.Errorf("error at line %d: %w", lineNum, err)
		}

		s, err := recordToSample(record, indices)
		if err != nil {
			// Log error but continue parsing
			log.Warnf("line %d: %v", lineNum, err)
			continue
		}
		results = append(results, s)
	}

	return results, nil
}

func lookupColumn(indices map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if idx, ok := indices[n]; ok {
			return idx, true
		}
	}
	return 0, false
}

// recordToSample converts a CSV record to a TelemetrySample
func recordToSample(record []string, indices map[string]int) (models.TelemetrySample, error) {
	var s models.TelemetrySample
	var err error

	getValue := func(field string) string {
		if idx, ok := lookupColumn(indices, columns[field]); ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	s.VehicleID = getValue("vehicle")
	if s.VehicleID == "" {
		return s, fmt.Errorf("missing vehicle_id")
	}
	if s.TimeSec, err = strconv.ParseFloat(getValue("time"), 64); err != nil {
		return s, fmt.Errorf("invalid time: %w", err)
	}
	if s.SpeedMPH, err = strconv.ParseFloat(getValue("speed"), 64); err != nil {
		return s, fmt.Errorf("invalid speed: %w", err)
	}
	return s, nil
}

// parseJSON parses a JSON array of samples, falling back to JSON lines
func (p *Parser) parseJSON(r io.Reader) ([]models.TelemetrySample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var results []models.TelemetrySample
	if err := json.Unmarshal(data, &results); err == nil {
		return results, nil
	}

	return p.parseJSONLines(bytes.NewReader(data))
}

// parseJSONLines parses newline-delimited JSON
func (p *Parser) parseJSONLines(r io.Reader) ([]models.TelemetrySample, error) {
	var results []models.TelemetrySample
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}

		// Remove trailing comma if present
		line = strings.TrimSuffix(line, ",")

		var s models.TelemetrySample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			log.Warnf("line %d: %v", lineNum, err)
			continue
		}
		results = append(results, s)
	}

	return results, scanner.Err()
}

// parseLog parses pipe-separated lines: time_sec|vehicle_id|speed_mph
func (p *Parser) parseLog(r io.Reader) ([]models.TelemetrySample, error) {
	var results []models.TelemetrySample
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			log.Warnf("line %d: insufficient fields", lineNum)
			continue
		}

		var s models.TelemetrySample
		var err error

		if s.TimeSec, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
			log.Warnf("line %d: invalid time", lineNum)
			continue
		}
		s.VehicleID = strings.TrimSpace(parts[1])
		if s.SpeedMPH, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
			log.Warnf("line %d: invalid speed", lineNum)
			continue
		}

		results = append(results, s)
	}

	return results, scanner.Err()
}

// ValidateSample validates a telemetry sample
func ValidateSample(s *models.TelemetrySample) []string {
	var errors []string

	if s.VehicleID == "" {
		errors = append(errors, "vehicle_id is required")
	}
	if s.TimeSec < 0 {
		errors = append(errors, "time_sec cannot be negative")
	}
	if s.SpeedMPH < 0 {
		errors = append(errors, "speed_mph cannot be negative")
	}

	return errors
}
